package route

import (
	"time"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
)

// NodeRole tags a route node's position in the route.
type NodeRole string

const (
	RoleOrigin      NodeRole = "origin"
	RoleDestination NodeRole = "destination"
	RoleWaypoint    NodeRole = "waypoint"
)

// Type is the routing preference a route was requested with.
type Type string

const (
	TypeFastest   Type = "fastest"
	TypeShortest  Type = "shortest"
	TypeScenic    Type = "scenic"
	TypeOptimized Type = "optimized"
)

func (t Type) valid() bool {
	switch t {
	case TypeFastest, TypeShortest, TypeScenic, TypeOptimized:
		return true
	}
	return false
}

// TrafficCondition is informational only; it does not affect estimates.
type TrafficCondition string

const (
	TrafficLight    TrafficCondition = "light"
	TrafficModerate TrafficCondition = "moderate"
	TrafficHeavy    TrafficCondition = "heavy"
	TrafficSevere   TrafficCondition = "severe"
)

func (c TrafficCondition) valid() bool {
	switch c {
	case TrafficLight, TrafficModerate, TrafficHeavy, TrafficSevere:
		return true
	}
	return false
}

// Status is a route's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// NodeSpec is a stop as supplied by the caller.
type NodeSpec struct {
	Name         string         `json:"name"`
	Coordinates  geo.Coordinate `json:"coordinates"`
	Address      string         `json:"address,omitempty"`
	BusinessUnit string         `json:"businessUnit,omitempty"`
}

// Node is a stop in a route. Leg figures describe the distance from the
// previous stop and are zero for the origin.
type Node struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Role             NodeRole       `json:"type"`
	Coordinates      geo.Coordinate `json:"coordinates"`
	Address          string         `json:"address,omitempty"`
	BusinessUnit     string         `json:"businessUnit,omitempty"`
	DistanceKm       float64        `json:"distanceKm"`
	DurationMinutes  float64        `json:"durationMinutes"`
	EstimatedArrival time.Time      `json:"estimatedArrival"`
}

// Route is an ordered origin → waypoints → destination path. Distance and
// duration are fixed at creation.
type Route struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Origin               Node             `json:"origin"`
	Destination          Node             `json:"destination"`
	Waypoints            []Node           `json:"waypoints"`
	TotalDistanceKm      float64          `json:"totalDistanceKm"`
	TotalDurationMinutes float64          `json:"totalDurationMinutes"`
	TrafficCondition     TrafficCondition `json:"trafficCondition"`
	RouteType            Type             `json:"routeType"`
	CreatedAt            time.Time        `json:"createdAt"`
	Status               Status           `json:"status"`
}

func (r *Route) clone() *Route {
	c := *r
	c.Waypoints = make([]Node, len(r.Waypoints))
	copy(c.Waypoints, r.Waypoints)
	return &c
}

// Patch updates the mutable fields of a route. Stops and estimates cannot be
// patched.
type Patch struct {
	Name             *string           `json:"name,omitempty"`
	Status           *Status           `json:"status,omitempty"`
	TrafficCondition *TrafficCondition `json:"trafficCondition,omitempty"`
}
