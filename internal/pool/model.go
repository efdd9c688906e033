package pool

import (
	"fmt"
	"strings"
)

// Algorithm names the selection strategy a pool uses.
type Algorithm string

const (
	AlgorithmRoundRobin         Algorithm = "round_robin"
	AlgorithmWeightedRoundRobin Algorithm = "weighted_round_robin"
	AlgorithmLeastConnections   Algorithm = "least_connections"
	AlgorithmGeographic         Algorithm = "geographic"
	AlgorithmPerformanceBased   Algorithm = "performance_based"
)

// Valid reports whether a is one of the known algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmRoundRobin, AlgorithmWeightedRoundRobin, AlgorithmLeastConnections,
		AlgorithmGeographic, AlgorithmPerformanceBased:
		return true
	}
	return false
}

// DefaultHealthCheckIntervalSeconds is applied when a pool spec leaves the
// interval unset.
const DefaultHealthCheckIntervalSeconds = 30

// Node represents a backend instance in a pool. Values returned from the
// Registry are snapshots; mutating them has no effect on the pool.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`

	// Selection bias, always >= 1
	Weight int `json:"weight"`

	CurrentConnections int     `json:"currentConnections"`
	MaxConnections     int     `json:"maxConnections"`
	ResponseTimeMs     float64 `json:"responseTimeMs"`

	// Derived from traffic, 0-100
	HealthScore int `json:"healthScore"`

	Region  string `json:"region"`
	Enabled bool   `json:"enabled"`
}

// Pool is a named set of interchangeable nodes sharing one algorithm.
type Pool struct {
	ID                         string    `json:"id"`
	Name                       string    `json:"name"`
	Algorithm                  Algorithm `json:"algorithm"`
	HealthCheckIntervalSeconds int       `json:"healthCheckIntervalSeconds"`

	// Consumed by callers, not enforced by the engine.
	SessionAffinity bool `json:"sessionAffinity"`
	StickySessions  bool `json:"stickySessions"`

	Nodes []Node `json:"nodes"`
}

// clone returns a deep copy of p.
func (p *Pool) clone() Pool {
	c := *p
	c.Nodes = make([]Node, len(p.Nodes))
	copy(c.Nodes, p.Nodes)
	return c
}

// Node returns a pointer to the node with the given ID inside p.
func (p *Pool) Node(id string) *Node {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i]
		}
	}
	return nil
}

// EnabledNodes returns the enabled nodes of p in pool order.
func (p *Pool) EnabledNodes() []Node {
	nodes := make([]Node, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.Enabled {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Slug derives a pool ID from its display name: lower case, whitespace runs
// collapsed to a single underscore.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%s, health=%d, enabled=%v)", n.ID, n.Region, n.HealthScore, n.Enabled)
}
