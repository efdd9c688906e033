package traffic

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultCapacity is the number of samples kept per node.
const DefaultCapacity = 100

// Window stores a bounded, chronologically ordered history of samples per
// node. When a node's history is full the oldest sample is evicted.
type Window struct {
	mu       sync.RWMutex
	clock    clock.Clock
	capacity int
	history  map[string][]Sample
}

// NewWindow creates a Window. A nil clock uses the wall clock and a
// non-positive capacity uses DefaultCapacity.
func NewWindow(clk clock.Clock, capacity int) *Window {
	if clk == nil {
		clk = clock.New()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{
		clock:    clk,
		capacity: capacity,
		history:  make(map[string][]Sample),
	}
}

// Append pushes a sample onto the node's history, evicting the oldest entry
// once the history exceeds the window capacity.
func (w *Window) Append(key string, s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := w.history[key]
	if len(h) >= w.capacity {
		// Shift left (remove oldest)
		h = append(h[1:], s)
	} else {
		h = append(h, s)
	}
	w.history[key] = h
}

// RecentWindow returns the node's samples with a timestamp no older than d,
// in chronological order. Unknown keys yield an empty slice.
func (w *Window) RecentWindow(key string, d time.Duration) []Sample {
	cutoff := w.clock.Now().Add(-d)

	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]Sample, 0)
	for _, s := range w.history[key] {
		if !s.Timestamp.Before(cutoff) {
			result = append(result, s)
		}
	}
	return result
}

// RecentWindowWith returns what RecentWindow would return after appending s,
// without appending it.
func (w *Window) RecentWindowWith(key string, d time.Duration, s Sample) []Sample {
	cutoff := w.clock.Now().Add(-d)

	w.mu.RLock()
	defer w.mu.RUnlock()

	h := w.history[key]
	if len(h) >= w.capacity {
		h = h[len(h)-w.capacity+1:]
	}

	result := make([]Sample, 0, len(h)+1)
	for _, prev := range h {
		if !prev.Timestamp.Before(cutoff) {
			result = append(result, prev)
		}
	}
	if !s.Timestamp.Before(cutoff) {
		result = append(result, s)
	}
	return result
}

// Samples returns a copy of the node's full history.
func (w *Window) Samples(key string) []Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	h := w.history[key]
	result := make([]Sample, len(h))
	copy(result, h)
	return result
}

// Len returns the number of samples held for the node.
func (w *Window) Len(key string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.history[key])
}

