// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

// Sample sources the monitor can be fed from.
const (
	SourceSynthetic = "synthetic"
	SourceReported  = "reported"
)

// Config holds the entire engine configuration
type Config struct {
	Port            int             `yaml:"port"`
	MonitorInterval time.Duration   `yaml:"monitor_interval"`
	SampleSource    string          `yaml:"sample_source"`
	LogLevel        string          `yaml:"log_level"`
	Development     bool            `yaml:"development"`
	EventHistory    int             `yaml:"event_history"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	DefaultLocation *geo.Coordinate `yaml:"default_location"`
	Pools           []pool.PoolSpec `yaml:"pools"`
}

// RateLimitConfig bounds the selection endpoint
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:            8080,
		MonitorInterval: 30 * time.Second,
		SampleSource:    SourceSynthetic,
		LogLevel:        "info",
		EventHistory:    100,
		RateLimit: RateLimitConfig{
			RPS:   200,
			Burst: 50,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and seeds the default pools when none are configured. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if len(cfg.Pools) == 0 {
		cfg.Pools = DefaultPools()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	// Read ROUTER_PORT from env
	if v := os.Getenv("ROUTER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROUTER_PORT: %w", err)
		}
		c.Port = port
	}

	// Read MONITOR_INTERVAL (seconds) from env
	if v := os.Getenv("MONITOR_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MONITOR_INTERVAL: %w", err)
		}
		c.MonitorInterval = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("SAMPLE_SOURCE"); v != "" {
		c.SampleSource = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("SELECT_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SELECT_RATE_LIMIT: %w", err)
		}
		c.RateLimit.RPS = rps
	}
	if v := os.Getenv("SELECT_RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SELECT_RATE_BURST: %w", err)
		}
		c.RateLimit.Burst = burst
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor_interval must be positive, got %s", c.MonitorInterval)
	}
	switch c.SampleSource {
	case SourceSynthetic, SourceReported:
	default:
		return fmt.Errorf("unknown sample_source %q", c.SampleSource)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit rps and burst must be positive")
	}
	if c.DefaultLocation != nil {
		if err := c.DefaultLocation.Validate(); err != nil {
			return fmt.Errorf("default_location: %w", err)
		}
	}
	return nil
}
