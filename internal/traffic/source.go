package traffic

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Baseline is the node state a SampleSource may build a sample around.
type Baseline struct {
	PoolID            string
	NodeID            string
	ResponseTimeMs    float64
	ActiveConnections int
}

// SampleSource produces the next traffic sample for a node. It returns false
// when no new observation is available, in which case the node keeps its
// previous state.
type SampleSource interface {
	Sample(ctx context.Context, b Baseline) (Sample, bool)
}

// SyntheticSource generates jittered samples around a node's current state,
// standing in for real telemetry.
type SyntheticSource struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock clock.Clock
}

// NewSyntheticSource creates a SyntheticSource. Pass a seeded rng for
// reproducible sequences; nil uses a time-seeded one.
func NewSyntheticSource(rng *rand.Rand, clk clock.Clock) *SyntheticSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if clk == nil {
		clk = clock.New()
	}
	return &SyntheticSource{rng: rng, clock: clk}
}

// Sample always produces a sample:
//   - requests uniform in [0, 1000)
//   - response time within ±5ms of the baseline
//   - error rate uniform in [0, 5)%
//   - bandwidth uniform in [0, 100) Mbps
//   - active connections within ±10 of the baseline, never negative
func (s *SyntheticSource) Sample(_ context.Context, b Baseline) (Sample, bool) {
	s.mu.Lock()
	requests := s.rng.Intn(1000)
	rtJitter := (s.rng.Float64() - 0.5) * 10
	errorRate := s.rng.Float64() * 5
	bandwidth := s.rng.Float64() * 100
	connJitter := int(math.Floor((s.rng.Float64() - 0.5) * 20))
	s.mu.Unlock()

	rt := b.ResponseTimeMs + rtJitter
	if rt < 0 {
		rt = 0
	}
	conns := b.ActiveConnections + connJitter
	if conns < 0 {
		conns = 0
	}

	return Sample{
		NodeID:            b.NodeID,
		Timestamp:         s.clock.Now(),
		Requests:          requests,
		ResponseTimeMs:    rt,
		ErrorRatePct:      errorRate,
		BandwidthMbps:     bandwidth,
		ActiveConnections: conns,
	}, true
}

// ReportedSource hands out samples pushed by an external reporter. Each
// reported sample is consumed by at most one Sample call; newer reports for
// the same node replace older unconsumed ones.
type ReportedSource struct {
	mu      sync.Mutex
	clock   clock.Clock
	pending map[string]Sample
}

// NewReportedSource creates an empty ReportedSource.
func NewReportedSource(clk clock.Clock) *ReportedSource {
	if clk == nil {
		clk = clock.New()
	}
	return &ReportedSource{
		clock:   clk,
		pending: make(map[string]Sample),
	}
}

// Report records the latest observation for a node. A zero timestamp is
// stamped with the current time.
func (r *ReportedSource) Report(poolID, nodeID string, s Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.NodeID = nodeID
	if s.Timestamp.IsZero() {
		s.Timestamp = r.clock.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[Key(poolID, nodeID)] = s
	return nil
}

// Sample returns and consumes the pending report for the node, if any.
func (r *ReportedSource) Sample(_ context.Context, b Baseline) (Sample, bool) {
	key := Key(b.PoolID, b.NodeID)

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	return s, ok
}
