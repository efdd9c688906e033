package lb

import (
	"math/rand"
	"sync"
	"time"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

// Rand is the random source WeightedRoundRobin draws from. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// WeightedRoundRobin picks nodes at random with probability proportional to
// their weight.
type WeightedRoundRobin struct {
	mu  sync.Mutex
	rng Rand
}

// NewWeightedRoundRobin creates a WeightedRoundRobin. A nil rng uses a
// time-seeded source.
func NewWeightedRoundRobin(rng Rand) *WeightedRoundRobin {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WeightedRoundRobin{rng: rng}
}

// Select draws a value in [0, total weight) and walks the nodes in order,
// subtracting each weight until the remainder reaches zero.
func (w *WeightedRoundRobin) Select(nodes []pool.Node, _ *geo.Coordinate) pool.Node {
	total := 0
	for _, n := range nodes {
		total += n.Weight
	}
	if total <= 0 {
		return nodes[0]
	}

	w.mu.Lock()
	remainder := w.rng.Float64() * float64(total)
	w.mu.Unlock()

	for _, n := range nodes {
		remainder -= float64(n.Weight)
		if remainder <= 0 {
			return n
		}
	}
	return nodes[0]
}
