// Package pool holds the registry of load-balanced node pools.
package pool

import (
	"fmt"
	"sync"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
)

type entry struct {
	mu   sync.RWMutex
	pool Pool
}

// Registry holds the pools and provides concurrency-safe access. The registry
// lock guards membership; each pool has its own lock guarding its nodes.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*entry
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*entry)}
}

// Add validates spec and registers the pool it describes, returning the new
// pool ID. Names colliding case-insensitively with an existing pool are
// rejected.
func (r *Registry) Add(spec PoolSpec) (string, error) {
	p, err := spec.build()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[p.ID]; exists {
		return "", fmt.Errorf("%w: pool name %q collides with existing pool %q", apperr.ErrInvalidSpec, spec.Name, p.ID)
	}
	r.pools[p.ID] = &entry{pool: p}
	r.order = append(r.order, p.ID)
	return p.ID, nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.pools[id]
	if !ok {
		return nil, fmt.Errorf("%w: pool %q", apperr.ErrNotFound, id)
	}
	return e, nil
}

// Get returns a snapshot of the pool.
func (r *Registry) Get(id string) (Pool, bool) {
	e, err := r.lookup(id)
	if err != nil {
		return Pool{}, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.clone(), true
}

// IDs returns the pool IDs in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Pools returns snapshots of all pools in registration order.
func (r *Registry) Pools() []Pool {
	ids := r.IDs()
	pools := make([]Pool, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.Get(id); ok {
			pools = append(pools, p)
		}
	}
	return pools
}

// Len returns the number of registered pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// UpdateNode applies patch to a node under the pool's write lock and returns
// the updated node.
func (r *Registry) UpdateNode(poolID, nodeID string, patch NodePatch) (Node, error) {
	var updated Node
	err := r.Mutate(poolID, func(p *Pool) error {
		n := p.Node(nodeID)
		if n == nil {
			return fmt.Errorf("%w: node %q in pool %q", apperr.ErrNotFound, nodeID, poolID)
		}
		next, err := patch.apply(*n)
		if err != nil {
			return err
		}
		*n = next
		updated = next
		return nil
	})
	return updated, err
}

// Mutate runs fn with exclusive access to the pool. Selection reads never
// observe a pool while fn is running.
func (r *Registry) Mutate(poolID string, fn func(p *Pool) error) error {
	e, err := r.lookup(poolID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.pool)
}
