// cmd/routingd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/api"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/config"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/logging"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/routing"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
	ratelimiter "github.com/csheoganj-del/deora-plaza-sub004/rate_limiter"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Build the logger
	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 3. Wire and run the engine until SIGINT/SIGTERM
	app := fx.New(
		fx.Supply(cfg, logger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			newEngine,
			newLimiter,
			api.NewAPI,
			newHTTPServer,
		),
		fx.Invoke(func(*http.Server) {}),
	)
	app.Run()
}

// newEngine builds the engine, registers the configured pools and ties the
// monitor to the application lifecycle.
func newEngine(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*routing.Engine, error) {
	var source traffic.SampleSource
	if cfg.SampleSource == config.SourceReported {
		source = traffic.NewReportedSource(nil)
	}

	engine := routing.New(routing.Options{
		Logger:          logger,
		Locations:       geo.NewStaticLocation(cfg.DefaultLocation),
		Source:          source,
		MonitorInterval: cfg.MonitorInterval,
		EventHistory:    cfg.EventHistory,
	})

	for _, spec := range cfg.Pools {
		if _, err := engine.AddPool(spec); err != nil {
			return nil, fmt.Errorf("register pool %q: %w", spec.Name, err)
		}
	}

	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			engine.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			engine.Stop()
			return nil
		},
	})
	return engine, nil
}

func newLimiter(cfg *config.Config) *ratelimiter.Limiter {
	return ratelimiter.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func newHTTPServer(lc fx.Lifecycle, cfg *config.Config, handlers *api.API, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("routing engine listening", zap.Int("port", cfg.Port))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down routing engine")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
