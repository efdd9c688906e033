// Package routing composes node pools, selection, health monitoring and
// route planning into a single engine.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/events"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/health"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/lb"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/metrics"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/monitor"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/route"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/traffic"
)

const (
	// DefaultTrafficHours is the lookback of TrafficData when none is given.
	DefaultTrafficHours = 24
	// MaxTrafficHours bounds the lookback of TrafficData.
	MaxTrafficHours = 24 * 365 * 10
)

// Reporter accepts externally observed samples.
type Reporter interface {
	Report(poolID, nodeID string, s traffic.Sample) error
}

// Options configures an Engine. Zero values take defaults.
type Options struct {
	Clock  clock.Clock
	Logger *zap.Logger
	// Rand drives weighted selection.
	Rand lb.Rand
	// Locations answers for callers that pass no coordinate. May be nil.
	Locations geo.LocationProvider
	// Source feeds the monitor. Defaults to a SyntheticSource. ReportSample
	// only works when Source also implements Reporter.
	Source          traffic.SampleSource
	MonitorInterval time.Duration
	WindowCapacity  int
	EventHistory    int
}

// RoutingMetrics is an aggregate view of every pool.
type RoutingMetrics struct {
	TotalPools        int             `json:"totalPools"`
	TotalNodes        int             `json:"totalNodes"`
	ActiveNodes       int             `json:"activeNodes"`
	TotalConnections  int             `json:"totalConnections"`
	AvgResponseTimeMs float64         `json:"avgResponseTimeMs"`
	AvgHealthScore    float64         `json:"avgHealthScore"`
	CurrentLocation   *geo.Coordinate `json:"currentLocation,omitempty"`
}

// Engine is the routing engine. Construct it once and share it.
type Engine struct {
	clock     clock.Clock
	logger    *zap.Logger
	registry  *pool.Registry
	window    *traffic.Window
	source    traffic.SampleSource
	balancer  *lb.Balancer
	planner   *route.Planner
	monitor   *monitor.Loop
	events    *events.EventSystem
	locations geo.LocationProvider
}

// New creates an Engine with no pools. The monitor is not started.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Source == nil {
		opts.Source = traffic.NewSyntheticSource(nil, opts.Clock)
	}

	e := &Engine{
		clock:     opts.Clock,
		logger:    opts.Logger.Named("routing"),
		registry:  pool.NewRegistry(),
		window:    traffic.NewWindow(opts.Clock, opts.WindowCapacity),
		source:    opts.Source,
		planner:   route.NewPlanner(opts.Clock),
		events:    events.NewEventSystem(opts.EventHistory, opts.Logger, opts.Clock),
		locations: opts.Locations,
	}
	e.balancer = lb.NewBalancer(e.registry, opts.Rand, opts.Locations)
	e.monitor = monitor.New(e.registry, e.window, e.source, monitor.Options{
		Interval:     opts.MonitorInterval,
		Clock:        opts.Clock,
		Logger:       opts.Logger,
		OnTransition: e.onTransition,
		OnError:      e.onMonitorError,
	})
	return e
}

// Events returns the engine's event stream.
func (e *Engine) Events() *events.EventSystem {
	return e.events
}

// Monitor returns the periodic health monitor.
func (e *Engine) Monitor() *monitor.Loop {
	return e.monitor
}

// Start launches the monitor loop.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("starting monitor", zap.Duration("interval", e.monitor.Interval()))
	e.monitor.Start(ctx)
}

// Stop halts the monitor after its in-flight tick.
func (e *Engine) Stop() {
	e.monitor.Stop()
	e.logger.Info("monitor stopped", zap.Uint64("ticks", e.monitor.Ticks()))
}

// AddPool registers a pool and returns its ID.
func (e *Engine) AddPool(spec pool.PoolSpec) (string, error) {
	id, err := e.registry.Add(spec)
	if err != nil {
		return "", err
	}

	p, _ := e.registry.Get(id)
	for _, n := range p.Nodes {
		metrics.RecordNode(p.ID, n.ID, n.HealthScore, n.CurrentConnections, n.Weight, n.Enabled)
		if p.Algorithm == pool.AlgorithmGeographic && !geo.KnownRegion(n.Region) {
			e.logger.Warn("node region has no reference coordinate; distances are measured from (0, 0)",
				zap.String("pool", id),
				zap.String("node", n.ID),
				zap.String("region", n.Region))
		}
	}
	e.logger.Info("pool registered",
		zap.String("pool", id),
		zap.String("algorithm", string(p.Algorithm)),
		zap.Int("nodes", len(p.Nodes)))
	e.events.Publish(events.Event{
		Type:    events.SuccessEvent,
		Message: fmt.Sprintf("Pool %s registered with %d nodes", p.Name, len(p.Nodes)),
		PoolID:  id,
	})
	return id, nil
}

// GetPool returns a snapshot of the pool.
func (e *Engine) GetPool(poolID string) (pool.Pool, bool) {
	return e.registry.Get(poolID)
}

// Pools returns snapshots of every pool in registration order.
func (e *Engine) Pools() []pool.Pool {
	return e.registry.Pools()
}

// SelectOptimalNode picks a node of poolID for a caller at caller, which may
// be nil. A pool with no enabled node returns apperr.ErrNoHealthyNode.
func (e *Engine) SelectOptimalNode(poolID string, caller *geo.Coordinate) (*pool.Node, error) {
	sel, err := e.balancer.PickNode(poolID, caller)
	switch {
	case errors.Is(err, apperr.ErrNoHealthyNode):
		metrics.RecordSelection(poolID, string(sel.Algorithm), metrics.ResultNoHealthy)
		return nil, err
	case err != nil:
		// Caller-supplied IDs never become label values.
		metrics.RecordSelection(metrics.UnknownPool, "", metrics.ResultNotFound)
		return nil, err
	}

	metrics.RecordSelection(poolID, string(sel.Algorithm), metrics.ResultSelected)
	return &sel.Node, nil
}

// UpdateNode applies a partial update to a node.
func (e *Engine) UpdateNode(poolID, nodeID string, patch pool.NodePatch) error {
	n, err := e.registry.UpdateNode(poolID, nodeID, patch)
	if err != nil {
		return err
	}

	metrics.RecordNode(poolID, n.ID, n.HealthScore, n.CurrentConnections, n.Weight, n.Enabled)
	e.events.Publish(events.Event{
		Type:    events.InfoEvent,
		Message: fmt.Sprintf("Node %s updated", n.ID),
		PoolID:  poolID,
		NodeID:  n.ID,
	})
	return nil
}

// AcquireConnection counts a request dispatched to a node.
func (e *Engine) AcquireConnection(poolID, nodeID string) (int, error) {
	return e.registry.AcquireConnection(poolID, nodeID)
}

// ReleaseConnection counts a finished request on a node.
func (e *Engine) ReleaseConnection(poolID, nodeID string) (int, error) {
	return e.registry.ReleaseConnection(poolID, nodeID)
}

// ReportSample hands an observed sample to the monitor's source. It fails
// with apperr.ErrInvalidSpec when the engine generates its own traffic.
func (e *Engine) ReportSample(poolID, nodeID string, s traffic.Sample) error {
	if err := e.nodeExists(poolID, nodeID); err != nil {
		return err
	}
	reporter, ok := e.source.(Reporter)
	if !ok {
		return fmt.Errorf("%w: sample reporting is disabled for this engine", apperr.ErrInvalidSpec)
	}
	return reporter.Report(poolID, nodeID, s)
}

// TrafficData returns the node's samples of the last hours hours, oldest
// first. A non-positive hours uses DefaultTrafficHours; larger values than
// MaxTrafficHours are capped.
func (e *Engine) TrafficData(poolID, nodeID string, hours int) ([]traffic.Sample, error) {
	if err := e.nodeExists(poolID, nodeID); err != nil {
		return nil, err
	}
	switch {
	case hours <= 0:
		hours = DefaultTrafficHours
	case hours > MaxTrafficHours:
		hours = MaxTrafficHours
	}
	return e.window.RecentWindow(traffic.Key(poolID, nodeID), time.Duration(hours)*time.Hour), nil
}

// CreateRoute plans and stores a route, returning its ID.
func (e *Engine) CreateRoute(name string, origin, destination route.NodeSpec, waypoints []route.NodeSpec, routeType route.Type) (string, error) {
	id, err := e.planner.Create(name, origin, destination, waypoints, routeType)
	if err != nil {
		return "", err
	}

	r, _ := e.planner.Get(id)
	metrics.RecordRouteCreated(string(r.RouteType))
	e.logger.Debug("route created",
		zap.String("route", id),
		zap.Float64("distance_km", r.TotalDistanceKm),
		zap.Int("waypoints", len(r.Waypoints)))
	e.events.Publish(events.Event{
		Type:    events.SuccessEvent,
		Message: fmt.Sprintf("Route %s created: %.1f km", r.Name, r.TotalDistanceKm),
		RouteID: id,
	})
	return id, nil
}

// GetRoute returns a copy of the route.
func (e *Engine) GetRoute(id string) (*route.Route, bool) {
	return e.planner.Get(id)
}

// ListRoutes returns every route, or only those in status when non-nil.
func (e *Engine) ListRoutes(status *route.Status) []*route.Route {
	return e.planner.List(status)
}

// UpdateRoute changes a route's name, status or traffic condition.
func (e *Engine) UpdateRoute(id string, patch route.Patch) (*route.Route, error) {
	r, err := e.planner.Update(id, patch)
	if err != nil {
		return nil, err
	}
	e.events.Publish(events.Event{
		Type:    events.InfoEvent,
		Message: fmt.Sprintf("Route %s updated", r.Name),
		RouteID: id,
	})
	return r, nil
}

// DeleteRoute removes a route.
func (e *Engine) DeleteRoute(id string) error {
	if err := e.planner.Delete(id); err != nil {
		return err
	}
	e.events.Publish(events.Event{
		Type:    events.InfoEvent,
		Message: fmt.Sprintf("Route %s deleted", id),
		RouteID: id,
	})
	return nil
}

// Metrics aggregates node state across all pools. Averages are zero when
// there are no nodes.
func (e *Engine) Metrics() RoutingMetrics {
	pools := e.registry.Pools()
	m := RoutingMetrics{TotalPools: len(pools)}

	var rtSum, hsSum float64
	for _, p := range pools {
		for _, n := range p.Nodes {
			m.TotalNodes++
			if n.Enabled {
				m.ActiveNodes++
			}
			m.TotalConnections += n.CurrentConnections
			rtSum += n.ResponseTimeMs
			hsSum += float64(n.HealthScore)
		}
	}
	if m.TotalNodes > 0 {
		m.AvgResponseTimeMs = rtSum / float64(m.TotalNodes)
		m.AvgHealthScore = hsSum / float64(m.TotalNodes)
	}

	if e.locations != nil {
		if c, ok := e.locations.CurrentLocation(); ok {
			m.CurrentLocation = &c
		}
	}
	return m
}

func (e *Engine) nodeExists(poolID, nodeID string) error {
	p, ok := e.registry.Get(poolID)
	if !ok {
		return fmt.Errorf("%w: pool %q", apperr.ErrNotFound, poolID)
	}
	if p.Node(nodeID) == nil {
		return fmt.Errorf("%w: node %q in pool %q", apperr.ErrNotFound, nodeID, poolID)
	}
	return nil
}

func (e *Engine) onMonitorError(err error) {
	e.events.Publish(events.Event{
		Type:    events.ErrorEvent,
		Message: fmt.Sprintf("Monitor tick: %d node failures", len(multierr.Errors(err))),
	})
}

func (e *Engine) onTransition(poolID string, n pool.Node, t health.Transition) {
	ev := events.Event{PoolID: poolID, NodeID: n.ID}
	switch t {
	case health.TransitionDisabled:
		ev.Type = events.WarningEvent
		ev.Message = fmt.Sprintf("Node %s disabled (health %d)", n.ID, n.HealthScore)
	case health.TransitionEnabled:
		ev.Type = events.SuccessEvent
		ev.Message = fmt.Sprintf("Node %s re-enabled (health %d)", n.ID, n.HealthScore)
	default:
		return
	}
	e.events.Publish(ev)
}
