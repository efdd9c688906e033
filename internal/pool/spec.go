package pool

import (
	"fmt"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
)

// NodeSpec describes a node at pool registration time.
type NodeSpec struct {
	ID                 string  `json:"id" yaml:"id"`
	Name               string  `json:"name" yaml:"name"`
	URL                string  `json:"url" yaml:"url"`
	Weight             int     `json:"weight" yaml:"weight"`
	CurrentConnections int     `json:"currentConnections" yaml:"current_connections"`
	MaxConnections     int     `json:"maxConnections" yaml:"max_connections"`
	ResponseTimeMs     float64 `json:"responseTimeMs" yaml:"response_time_ms"`
	Region             string  `json:"region" yaml:"region"`

	// Defaults to 100 when unset.
	HealthScore *int `json:"healthScore,omitempty" yaml:"health_score,omitempty"`
	// Defaults to true when unset.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// PoolSpec describes a pool to register. The pool ID is derived from Name.
type PoolSpec struct {
	Name                       string     `json:"name" yaml:"name"`
	Algorithm                  Algorithm  `json:"algorithm" yaml:"algorithm"`
	HealthCheckIntervalSeconds int        `json:"healthCheckIntervalSeconds" yaml:"health_check_interval_seconds"`
	SessionAffinity            bool       `json:"sessionAffinity" yaml:"session_affinity"`
	StickySessions             bool       `json:"stickySessions" yaml:"sticky_sessions"`
	Nodes                      []NodeSpec `json:"nodes" yaml:"nodes"`
}

// NodePatch is a partial node update. Nil fields are left unchanged.
type NodePatch struct {
	Name               *string  `json:"name,omitempty"`
	URL                *string  `json:"url,omitempty"`
	Weight             *int     `json:"weight,omitempty"`
	CurrentConnections *int     `json:"currentConnections,omitempty"`
	MaxConnections     *int     `json:"maxConnections,omitempty"`
	ResponseTimeMs     *float64 `json:"responseTimeMs,omitempty"`
	HealthScore        *int     `json:"healthScore,omitempty"`
	Region             *string  `json:"region,omitempty"`
	Enabled            *bool    `json:"enabled,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalidSpec, fmt.Sprintf(format, args...))
}

// build validates s and materializes the pool it describes.
func (s PoolSpec) build() (Pool, error) {
	id := Slug(s.Name)
	if id == "" {
		return Pool{}, invalid("pool name is required")
	}
	if !s.Algorithm.Valid() {
		return Pool{}, invalid("pool %q: unknown algorithm %q", s.Name, s.Algorithm)
	}
	if s.HealthCheckIntervalSeconds < 0 {
		return Pool{}, invalid("pool %q: health check interval must not be negative", s.Name)
	}

	p := Pool{
		ID:                         id,
		Name:                       s.Name,
		Algorithm:                  s.Algorithm,
		HealthCheckIntervalSeconds: s.HealthCheckIntervalSeconds,
		SessionAffinity:            s.SessionAffinity,
		StickySessions:             s.StickySessions,
		Nodes:                      make([]Node, 0, len(s.Nodes)),
	}
	if p.HealthCheckIntervalSeconds == 0 {
		p.HealthCheckIntervalSeconds = DefaultHealthCheckIntervalSeconds
	}

	seen := make(map[string]bool, len(s.Nodes))
	for i, ns := range s.Nodes {
		n, err := ns.build()
		if err != nil {
			return Pool{}, fmt.Errorf("pool %q node %d: %w", s.Name, i, err)
		}
		if seen[n.ID] {
			return Pool{}, invalid("pool %q: duplicate node id %q", s.Name, n.ID)
		}
		seen[n.ID] = true
		p.Nodes = append(p.Nodes, n)
	}
	return p, nil
}

func (s NodeSpec) build() (Node, error) {
	if s.ID == "" {
		return Node{}, invalid("node id is required")
	}
	if s.URL == "" {
		return Node{}, invalid("node %q: url is required", s.ID)
	}

	n := Node{
		ID:                 s.ID,
		Name:               s.Name,
		URL:                s.URL,
		Weight:             s.Weight,
		CurrentConnections: s.CurrentConnections,
		MaxConnections:     s.MaxConnections,
		ResponseTimeMs:     s.ResponseTimeMs,
		HealthScore:        100,
		Region:             s.Region,
		Enabled:            true,
	}
	if n.Name == "" {
		n.Name = n.ID
	}
	if n.Weight == 0 {
		n.Weight = 1
	}
	if s.HealthScore != nil {
		n.HealthScore = *s.HealthScore
	}
	if s.Enabled != nil {
		n.Enabled = *s.Enabled
	}
	if err := n.validate(); err != nil {
		return Node{}, err
	}
	return n, nil
}

func (n Node) validate() error {
	switch {
	case n.Weight < 1:
		return invalid("node %q: weight must be at least 1", n.ID)
	case n.CurrentConnections < 0:
		return invalid("node %q: current connections must not be negative", n.ID)
	case n.MaxConnections < 0:
		return invalid("node %q: max connections must not be negative", n.ID)
	case n.ResponseTimeMs < 0:
		return invalid("node %q: response time must not be negative", n.ID)
	case n.HealthScore < 0 || n.HealthScore > 100:
		return invalid("node %q: health score must be within [0, 100]", n.ID)
	case n.URL == "":
		return invalid("node %q: url is required", n.ID)
	}
	return nil
}

// apply returns n with the patch applied, validating the result.
func (p NodePatch) apply(n Node) (Node, error) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.URL != nil {
		n.URL = *p.URL
	}
	if p.Weight != nil {
		n.Weight = *p.Weight
	}
	if p.CurrentConnections != nil {
		n.CurrentConnections = *p.CurrentConnections
	}
	if p.MaxConnections != nil {
		n.MaxConnections = *p.MaxConnections
	}
	if p.ResponseTimeMs != nil {
		n.ResponseTimeMs = *p.ResponseTimeMs
	}
	if p.HealthScore != nil {
		n.HealthScore = *p.HealthScore
	}
	if p.Region != nil {
		n.Region = *p.Region
	}
	if p.Enabled != nil {
		n.Enabled = *p.Enabled
	}
	if err := n.validate(); err != nil {
		return Node{}, err
	}
	return n, nil
}
