package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/health"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
)

// scriptedSource returns whatever sample was last set for a node.
type scriptedSource struct {
	mu   sync.Mutex
	next map[string]traffic.Sample
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{next: make(map[string]traffic.Sample)}
}

func (s *scriptedSource) set(nodeID string, smp traffic.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[nodeID] = smp
}

func (s *scriptedSource) Sample(_ context.Context, b traffic.Baseline) (traffic.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	smp, ok := s.next[b.NodeID]
	return smp, ok
}

type fixture struct {
	clock    *clock.Mock
	registry *pool.Registry
	window   *traffic.Window
	source   *scriptedSource
	poolID   string
}

func newFixture(t *testing.T, algo pool.Algorithm, nodeIDs ...string) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.NewMock(),
		registry: pool.NewRegistry(),
		source:   newScriptedSource(),
	}
	f.window = traffic.NewWindow(f.clock, 0)

	spec := pool.PoolSpec{Name: "monitored", Algorithm: algo}
	for _, id := range nodeIDs {
		spec.Nodes = append(spec.Nodes, pool.NodeSpec{ID: id, URL: "https://" + id, MaxConnections: 100})
	}
	id, err := f.registry.Add(spec)
	require.NoError(t, err)
	f.poolID = id
	return f
}

func (f *fixture) sample(rt float64, conns int, errRate float64) traffic.Sample {
	return traffic.Sample{
		Timestamp:         f.clock.Now(),
		ResponseTimeMs:    rt,
		ActiveConnections: conns,
		ErrorRatePct:      errRate,
	}
}

func (f *fixture) node(t *testing.T, id string) pool.Node {
	t.Helper()
	p, ok := f.registry.Get(f.poolID)
	require.True(t, ok)
	n := p.Node(id)
	require.NotNil(t, n)
	return *n
}

func TestTick_UpdatesNodeFromSample(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "a")
	loop := New(f.registry, f.window, f.source, Options{Clock: f.clock})

	f.source.set("a", f.sample(600, 85, 3))
	require.NoError(t, loop.Tick(context.Background()))

	n := f.node(t, "a")
	assert.Equal(t, 85, n.CurrentConnections)
	assert.Equal(t, 600.0, n.ResponseTimeMs)
	// 100 - 25 (latency) - 20 (capacity) - 15 (errors)
	assert.Equal(t, 40, n.HealthScore)
	assert.True(t, n.Enabled)
	assert.Equal(t, 1, f.window.Len(traffic.Key(f.poolID, "a")))
	assert.Equal(t, uint64(1), loop.Ticks())
}

func TestTick_HysteresisAcrossTicks(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "a")
	var (
		mu          sync.Mutex
		transitions []health.Transition
	)
	loop := New(f.registry, f.window, f.source, Options{
		Clock: f.clock,
		OnTransition: func(poolID string, n pool.Node, tr health.Transition) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, f.poolID, poolID)
			transitions = append(transitions, tr)
		},
	})
	ctx := context.Background()

	// Exactly 30: 100 - 40 - 30, no error penalty. Stays enabled.
	f.source.set("a", f.sample(1500, 95, 0))
	require.NoError(t, loop.Tick(ctx))
	assert.Equal(t, 30, f.node(t, "a").HealthScore)
	assert.True(t, f.node(t, "a").Enabled)

	// Errors push it to 0 and disable it.
	f.source.set("a", f.sample(1500, 95, 20))
	require.NoError(t, loop.Tick(ctx))
	assert.Equal(t, 0, f.node(t, "a").HealthScore)
	assert.False(t, f.node(t, "a").Enabled)

	// Let the bad samples age out of the error window. A score in the dead
	// zone keeps the node disabled.
	f.clock.Add(6 * time.Minute)
	f.source.set("a", f.sample(600, 85, 0))
	require.NoError(t, loop.Tick(ctx))
	assert.Equal(t, 55, f.node(t, "a").HealthScore)
	assert.False(t, f.node(t, "a").Enabled)

	// Healthy again: re-enabled.
	f.source.set("a", f.sample(50, 10, 0))
	require.NoError(t, loop.Tick(ctx))
	assert.Equal(t, 100, f.node(t, "a").HealthScore)
	assert.True(t, f.node(t, "a").Enabled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []health.Transition{health.TransitionDisabled, health.TransitionEnabled}, transitions)
}

func TestTick_MissingSampleLeavesNodeUntouched(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "a", "b")
	loop := New(f.registry, f.window, f.source, Options{Clock: f.clock})

	f.source.set("a", f.sample(250, 10, 0))
	before := f.node(t, "b")
	require.NoError(t, loop.Tick(context.Background()))

	assert.Equal(t, 90, f.node(t, "a").HealthScore)
	assert.Equal(t, before, f.node(t, "b"))
	assert.Zero(t, f.window.Len(traffic.Key(f.poolID, "b")))
}

func TestTick_PerformanceBasedReweights(t *testing.T) {
	f := newFixture(t, pool.AlgorithmPerformanceBased, "a", "b")
	loop := New(f.registry, f.window, f.source, Options{Clock: f.clock})

	f.source.set("a", f.sample(50, 10, 0))  // 100
	f.source.set("b", f.sample(300, 10, 0)) // 90
	require.NoError(t, loop.Tick(context.Background()))

	assert.Equal(t, 10, f.node(t, "a").Weight)
	assert.Equal(t, 9, f.node(t, "b").Weight)
}

func TestTick_OtherAlgorithmsKeepWeights(t *testing.T) {
	f := newFixture(t, pool.AlgorithmWeightedRoundRobin, "a")
	loop := New(f.registry, f.window, f.source, Options{Clock: f.clock})

	f.source.set("a", f.sample(50, 10, 0))
	require.NoError(t, loop.Tick(context.Background()))
	assert.Equal(t, 1, f.node(t, "a").Weight)
}

func TestTick_IsolatesNodeFailures(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "bad", "good")
	var reported []error
	loop := New(f.registry, f.window, f.source, Options{
		Clock:   f.clock,
		OnError: func(err error) { reported = append(reported, err) },
		Score: func(n pool.Node, recent []traffic.Sample) int {
			if n.ID == "bad" {
				panic("scorer exploded")
			}
			return health.Score(n, recent)
		},
	})

	f.source.set("bad", f.sample(900, 50, 0))
	f.source.set("good", f.sample(900, 50, 0))
	before := f.node(t, "bad")

	err := loop.Tick(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "scorer exploded")
	require.Len(t, reported, 1)
	assert.Equal(t, err, reported[0])

	assert.Equal(t, before, f.node(t, "bad"), "failed node restored")
	assert.Zero(t, f.window.Len(traffic.Key(f.poolID, "bad")), "failed sample not kept")
	assert.Equal(t, 1, f.window.Len(traffic.Key(f.poolID, "good")))
	assert.Equal(t, 75, f.node(t, "good").HealthScore)
	assert.Equal(t, uint64(1), loop.Ticks())
}

func TestTick_RejectsOutOfRangeScore(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "a")
	loop := New(f.registry, f.window, f.source, Options{
		Clock: f.clock,
		Score: func(pool.Node, []traffic.Sample) int { return 150 },
	})
	f.source.set("a", f.sample(10, 99, 0))

	require.Error(t, loop.Tick(context.Background()))
	n := f.node(t, "a")
	assert.Equal(t, 100, n.HealthScore)
	assert.Zero(t, n.CurrentConnections)
	assert.Zero(t, f.window.Len(traffic.Key(f.poolID, "a")))
}

func TestLoop_StartTicksOnIntervalAndStops(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "a")
	f.source.set("a", f.sample(50, 10, 0))
	loop := New(f.registry, f.window, f.source, Options{Clock: f.clock})
	assert.Equal(t, DefaultInterval, loop.Interval())

	loop.Start(context.Background())
	loop.Start(context.Background()) // second call is a no-op

	f.clock.Add(DefaultInterval)
	require.Eventually(t, func() bool { return loop.Ticks() == 1 }, time.Second, time.Millisecond)

	f.clock.Add(DefaultInterval)
	require.Eventually(t, func() bool { return loop.Ticks() == 2 }, time.Second, time.Millisecond)

	loop.Stop()
	loop.Stop()
	f.clock.Add(DefaultInterval)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, uint64(2), loop.Ticks())
}

func TestLoop_StopsOnContextCancel(t *testing.T) {
	f := newFixture(t, pool.AlgorithmLeastConnections, "a")
	loop := New(f.registry, f.window, f.source, Options{Clock: f.clock, Interval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		loop.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
}
