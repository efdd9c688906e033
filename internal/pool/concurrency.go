package pool

import (
	"fmt"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
)

// AcquireConnection increments the node's in-flight connection count and
// returns the new count. Callers dispatching a request to a selected node
// pair it with ReleaseConnection.
func (r *Registry) AcquireConnection(poolID, nodeID string) (int, error) {
	return r.adjustConnections(poolID, nodeID, 1)
}

// ReleaseConnection decrements the node's in-flight connection count, never
// below zero, and returns the new count.
func (r *Registry) ReleaseConnection(poolID, nodeID string) (int, error) {
	return r.adjustConnections(poolID, nodeID, -1)
}

func (r *Registry) adjustConnections(poolID, nodeID string, delta int) (int, error) {
	var current int
	err := r.Mutate(poolID, func(p *Pool) error {
		n := p.Node(nodeID)
		if n == nil {
			return fmt.Errorf("%w: node %q in pool %q", apperr.ErrNotFound, nodeID, poolID)
		}
		n.CurrentConnections += delta
		if n.CurrentConnections < 0 {
			n.CurrentConnections = 0
		}
		current = n.CurrentConnections
		return nil
	})
	return current, err
}
