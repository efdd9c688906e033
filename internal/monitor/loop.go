// Package monitor drives the periodic traffic sampling, health scoring and
// weight optimization of every pool.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/health"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/lb"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/metrics"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
)

// DefaultInterval is the shared tick cadence for all pools.
const DefaultInterval = 30 * time.Second

// ScoreFunc computes a node's health from its state and recent samples.
type ScoreFunc func(n pool.Node, recent []traffic.Sample) int

// TransitionFunc is called after a tick for every node whose enabled state
// flipped. It runs outside of any pool lock.
type TransitionFunc func(poolID string, n pool.Node, t health.Transition)

// ErrorFunc receives the combined node failures of a tick.
type ErrorFunc func(err error)

// Options configures a Loop. Zero values take defaults.
type Options struct {
	Interval     time.Duration
	Clock        clock.Clock
	Logger       *zap.Logger
	Score        ScoreFunc
	OnTransition TransitionFunc
	OnError      ErrorFunc
	// Parallelism bounds how many pools are processed concurrently within
	// a tick.
	Parallelism int
}

// Loop is the single periodic driver of node mutation.
type Loop struct {
	registry *pool.Registry
	window   *traffic.Window
	source   traffic.SampleSource

	interval     time.Duration
	clock        clock.Clock
	logger       *zap.Logger
	score        ScoreFunc
	onTransition TransitionFunc
	onError      ErrorFunc
	parallelism  int

	tickMu sync.Mutex
	ticks  atomic.Uint64

	startOnce sync.Once
	stopOnce  sync.Once
	doneCh    chan struct{}
	wg        sync.WaitGroup
}

// New creates a Loop over the registry's pools.
func New(registry *pool.Registry, window *traffic.Window, source traffic.SampleSource, opts Options) *Loop {
	l := &Loop{
		registry:     registry,
		window:       window,
		source:       source,
		interval:     opts.Interval,
		clock:        opts.Clock,
		logger:       opts.Logger,
		score:        opts.Score,
		onTransition: opts.OnTransition,
		onError:      opts.OnError,
		parallelism:  opts.Parallelism,
		doneCh:       make(chan struct{}),
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.clock == nil {
		l.clock = clock.New()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	l.logger = l.logger.Named("monitor")
	if l.score == nil {
		l.score = health.Score
	}
	if l.parallelism <= 0 {
		l.parallelism = 4
	}
	return l
}

// Interval returns the tick cadence.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() uint64 {
	return l.ticks.Load()
}

// Start begins ticking in a goroutine until ctx is cancelled or Stop is
// called. Calling Start more than once has no effect.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		// Created before the goroutine so no tick is missed.
		ticker := l.clock.Ticker(l.interval)

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := l.Tick(ctx); err != nil {
						l.logger.Error("monitor tick finished with node failures", zap.Error(err))
					}
				case <-ctx.Done():
					return
				case <-l.doneCh:
					return
				}
			}
		}()
	})
}

// Stop terminates the loop and waits for an in-flight tick to finish.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.doneCh)
	})
	l.wg.Wait()
}

// Tick samples, scores and re-weights every node of every pool once. Ticks
// never overlap. Per-node failures are isolated and returned combined; they
// never abort the tick. Cancelling ctx does not interrupt a tick in progress.
func (l *Loop) Tick(ctx context.Context) error {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	start := l.clock.Now()

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	g.SetLimit(l.parallelism)

	ids := l.registry.IDs()
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := l.tickPool(ctx, id); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := l.clock.Since(start)
	metrics.RecordTickDuration(elapsed.Seconds())
	l.ticks.Add(1)
	l.logger.Debug("monitor tick complete",
		zap.Int("pools", len(ids)),
		zap.Duration("elapsed", elapsed),
		zap.Int("failures", len(multierr.Errors(errs))))
	if errs != nil && l.onError != nil {
		l.onError(errs)
	}
	return errs
}

type transition struct {
	node pool.Node
	kind health.Transition
}

func (l *Loop) tickPool(ctx context.Context, poolID string) error {
	var transitions []transition

	err := l.registry.Mutate(poolID, func(p *pool.Pool) error {
		var errs error
		for i := range p.Nodes {
			n := &p.Nodes[i]
			t, err := l.tickNode(ctx, p.ID, n)
			if err != nil {
				l.logger.Error("node scoring failed",
					zap.String("pool", p.ID),
					zap.String("node", n.ID),
					zap.Error(err))
				errs = multierr.Append(errs, err)
				continue
			}
			if t != health.TransitionNone {
				transitions = append(transitions, transition{node: *n, kind: t})
			}
		}

		if p.Algorithm == pool.AlgorithmPerformanceBased {
			lb.OptimizeWeights(p)
		}
		for _, n := range p.Nodes {
			metrics.RecordNode(p.ID, n.ID, n.HealthScore, n.CurrentConnections, n.Weight, n.Enabled)
		}
		return errs
	})

	for _, t := range transitions {
		metrics.RecordTransition(poolID, t.node.ID, t.kind.String())
		if t.kind == health.TransitionDisabled {
			l.logger.Warn("node disabled",
				zap.String("pool", poolID),
				zap.String("node", t.node.ID),
				zap.Int("health_score", t.node.HealthScore))
		} else {
			l.logger.Info("node re-enabled",
				zap.String("pool", poolID),
				zap.String("node", t.node.ID),
				zap.Int("health_score", t.node.HealthScore))
		}
		if l.onTransition != nil {
			l.onTransition(poolID, t.node, t.kind)
		}
	}
	return err
}

// tickNode updates one node from a fresh sample. On failure the node is
// restored to its state before the tick.
func (l *Loop) tickNode(ctx context.Context, poolID string, n *pool.Node) (t health.Transition, err error) {
	before := *n
	defer func() {
		if r := recover(); r != nil {
			*n = before
			t = health.TransitionNone
			err = fmt.Errorf("pool %q node %q: %v", poolID, n.ID, r)
		}
	}()

	s, ok := l.source.Sample(ctx, traffic.Baseline{
		PoolID:            poolID,
		NodeID:            n.ID,
		ResponseTimeMs:    n.ResponseTimeMs,
		ActiveConnections: n.CurrentConnections,
	})
	if !ok {
		// Nothing new observed; the previous state stands.
		return health.TransitionNone, nil
	}
	s.NodeID = n.ID

	n.CurrentConnections = s.ActiveConnections
	n.ResponseTimeMs = s.ResponseTimeMs

	// The sample joins the window only once the node has been scored.
	key := traffic.Key(poolID, n.ID)
	score := l.score(*n, l.window.RecentWindowWith(key, health.ErrorRateWindow, s))
	if score < 0 || score > 100 {
		*n = before
		return health.TransitionNone, fmt.Errorf("pool %q node %q: score %d out of range", poolID, n.ID, score)
	}
	n.HealthScore = score

	l.window.Append(key, s)
	metrics.RecordTrafficSample(poolID)
	return health.ApplyHysteresis(n), nil
}
