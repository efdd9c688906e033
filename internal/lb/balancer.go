// Package lb implements the node selection strategies and the selector that
// dispatches to them by pool algorithm.
package lb

import (
	"fmt"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

// Selection is the outcome of a successful selection.
type Selection struct {
	PoolID    string
	Algorithm pool.Algorithm
	Node      pool.Node
}

// Balancer orchestrates node selection for the pools of a registry.
type Balancer struct {
	registry   *pool.Registry
	strategies map[pool.Algorithm]Strategy
	locations  geo.LocationProvider
}

// NewBalancer creates a Balancer. rng drives the weighted strategy; locations
// may be nil when no geolocation provider is available.
func NewBalancer(registry *pool.Registry, rng Rand, locations geo.LocationProvider) *Balancer {
	return &Balancer{
		registry: registry,
		strategies: map[pool.Algorithm]Strategy{
			pool.AlgorithmRoundRobin:         LeastConnections{},
			pool.AlgorithmLeastConnections:   LeastConnections{},
			pool.AlgorithmWeightedRoundRobin: NewWeightedRoundRobin(rng),
			pool.AlgorithmGeographic:         Geographic{},
			pool.AlgorithmPerformanceBased:   PerformanceBased{},
		},
		locations: locations,
	}
}

// PickNode chooses the node of poolID that should serve a caller at caller.
// The pool is snapshotted under its read lock and the strategy runs outside
// of it. A pool without enabled nodes yields apperr.ErrNoHealthyNode.
func (b *Balancer) PickNode(poolID string, caller *geo.Coordinate) (Selection, error) {
	p, ok := b.registry.Get(poolID)
	if !ok {
		return Selection{}, fmt.Errorf("%w: pool %q", apperr.ErrNotFound, poolID)
	}

	nodes := p.EnabledNodes()
	if len(nodes) == 0 {
		return Selection{PoolID: p.ID, Algorithm: p.Algorithm},
			fmt.Errorf("%w: pool %q", apperr.ErrNoHealthyNode, poolID)
	}

	strategy, ok := b.strategies[p.Algorithm]
	if !ok {
		// Registry validation makes this unreachable; degrade to the first node.
		return Selection{PoolID: p.ID, Algorithm: p.Algorithm, Node: nodes[0]}, nil
	}

	if caller == nil && b.locations != nil {
		if c, known := b.locations.CurrentLocation(); known {
			caller = &c
		}
	}

	return Selection{
		PoolID:    p.ID,
		Algorithm: p.Algorithm,
		Node:      strategy.Select(nodes, caller),
	}, nil
}
