// Package route builds multi-stop routes with distance and duration
// estimates and keeps them in a registry.
package route

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
)

// Planner creates routes and stores them by ID.
type Planner struct {
	mu     sync.RWMutex
	clock  clock.Clock
	routes map[string]*Route
}

// NewPlanner creates an empty Planner. A nil clock uses the wall clock.
func NewPlanner(clk clock.Clock) *Planner {
	if clk == nil {
		clk = clock.New()
	}
	return &Planner{
		clock:  clk,
		routes: make(map[string]*Route),
	}
}

// Create builds a route from origin through waypoints to destination and
// returns its ID. Every call creates a distinct route. An empty routeType
// defaults to TypeFastest.
func (p *Planner) Create(name string, origin, destination NodeSpec, waypoints []NodeSpec, routeType Type) (string, error) {
	if routeType == "" {
		routeType = TypeFastest
	}
	if err := validate(name, origin, destination, waypoints, routeType); err != nil {
		return "", err
	}

	now := p.clock.Now()
	r := &Route{
		ID:               "route_" + uuid.NewString(),
		Name:             name,
		Origin:           newNode("origin", RoleOrigin, origin),
		Destination:      newNode("destination", RoleDestination, destination),
		Waypoints:        make([]Node, 0, len(waypoints)),
		TrafficCondition: TrafficModerate,
		RouteType:        routeType,
		CreatedAt:        now,
		Status:           StatusActive,
	}
	r.Origin.EstimatedArrival = now

	prev := origin.Coordinates
	total, elapsed := 0.0, 0.0
	leg := func(n *Node) {
		d := geo.Distance(prev, n.Coordinates)
		total += d
		elapsed += geo.Duration(d)
		n.DistanceKm = round1(d)
		n.DurationMinutes = round1(geo.Duration(d))
		n.EstimatedArrival = now.Add(time.Duration(elapsed * float64(time.Minute)))
		prev = n.Coordinates
	}

	for i, wp := range waypoints {
		n := newNode(fmt.Sprintf("waypoint_%d", i), RoleWaypoint, wp)
		leg(&n)
		r.Waypoints = append(r.Waypoints, n)
	}
	leg(&r.Destination)

	r.TotalDistanceKm = round1(total)
	r.TotalDurationMinutes = geo.Duration(r.TotalDistanceKm)

	p.mu.Lock()
	p.routes[r.ID] = r
	p.mu.Unlock()

	return r.ID, nil
}

// Get returns a copy of the route.
func (p *Planner) Get(id string) (*Route, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	r, ok := p.routes[id]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// List returns copies of all routes ordered by creation time, optionally
// restricted to one status.
func (p *Planner) List(status *Status) []*Route {
	p.mu.RLock()
	routes := make([]*Route, 0, len(p.routes))
	for _, r := range p.routes {
		if status == nil || r.Status == *status {
			routes = append(routes, r.clone())
		}
	}
	p.mu.RUnlock()

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].CreatedAt.Equal(routes[j].CreatedAt) {
			return routes[i].ID < routes[j].ID
		}
		return routes[i].CreatedAt.Before(routes[j].CreatedAt)
	})
	return routes
}

// Update applies patch to the route and returns the updated copy.
func (p *Planner) Update(id string, patch Patch) (*Route, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: route name must not be empty", apperr.ErrInvalidSpec)
	}
	if patch.Status != nil && !patch.Status.valid() {
		return nil, fmt.Errorf("%w: unknown route status %q", apperr.ErrInvalidSpec, *patch.Status)
	}
	if patch.TrafficCondition != nil && !patch.TrafficCondition.valid() {
		return nil, fmt.Errorf("%w: unknown traffic condition %q", apperr.ErrInvalidSpec, *patch.TrafficCondition)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.routes[id]
	if !ok {
		return nil, fmt.Errorf("%w: route %q", apperr.ErrNotFound, id)
	}
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.TrafficCondition != nil {
		r.TrafficCondition = *patch.TrafficCondition
	}
	return r.clone(), nil
}

// Delete removes the route.
func (p *Planner) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.routes[id]; !ok {
		return fmt.Errorf("%w: route %q", apperr.ErrNotFound, id)
	}
	delete(p.routes, id)
	return nil
}

// Len returns the number of stored routes.
func (p *Planner) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.routes)
}

func newNode(id string, role NodeRole, spec NodeSpec) Node {
	return Node{
		ID:           id,
		Name:         spec.Name,
		Role:         role,
		Coordinates:  spec.Coordinates,
		Address:      spec.Address,
		BusinessUnit: spec.BusinessUnit,
	}
}

func validate(name string, origin, destination NodeSpec, waypoints []NodeSpec, routeType Type) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: route name is required", apperr.ErrInvalidSpec)
	}
	if !routeType.valid() {
		return fmt.Errorf("%w: unknown route type %q", apperr.ErrInvalidSpec, routeType)
	}
	check := func(label string, s NodeSpec) error {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: %s name is required", apperr.ErrInvalidSpec, label)
		}
		if err := s.Coordinates.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", apperr.ErrInvalidSpec, label, err)
		}
		return nil
	}
	if err := check("origin", origin); err != nil {
		return err
	}
	if err := check("destination", destination); err != nil {
		return err
	}
	for i, wp := range waypoints {
		if err := check(fmt.Sprintf("waypoint %d", i), wp); err != nil {
			return err
		}
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
