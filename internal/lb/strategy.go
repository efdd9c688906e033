package lb

import (
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

// Strategy picks one node out of a non-empty set of enabled nodes. caller is
// nil when the caller's position is unknown.
type Strategy interface {
	Select(nodes []pool.Node, caller *geo.Coordinate) pool.Node
}

// LeastConnections picks the node with the fewest current connections. Ties go
// to the node seen first. Round robin uses the same rule.
type LeastConnections struct{}

func (LeastConnections) Select(nodes []pool.Node, _ *geo.Coordinate) pool.Node {
	best := nodes[0]
	for _, n := range nodes[1:] {
		if n.CurrentConnections < best.CurrentConnections {
			best = n
		}
	}
	return best
}

// PerformanceScore weighs health against spare capacity.
func PerformanceScore(n pool.Node) float64 {
	return float64(n.HealthScore)*0.6 + (1-n.Capacity())*40
}

// PerformanceBased picks the node with the highest PerformanceScore. Ties go
// to the node seen first.
type PerformanceBased struct{}

func (PerformanceBased) Select(nodes []pool.Node, _ *geo.Coordinate) pool.Node {
	best := nodes[0]
	bestScore := PerformanceScore(best)
	for _, n := range nodes[1:] {
		if s := PerformanceScore(n); s > bestScore {
			best, bestScore = n, s
		}
	}
	return best
}

// Geographic picks the node whose region is closest to the caller, falling
// back to least connections when the caller's position is unknown.
type Geographic struct{}

func (Geographic) Select(nodes []pool.Node, caller *geo.Coordinate) pool.Node {
	if caller == nil {
		return LeastConnections{}.Select(nodes, nil)
	}

	best := nodes[0]
	minDistance := geo.Distance(*caller, geo.RegionCoordinate(best.Region))
	for _, n := range nodes[1:] {
		if d := geo.Distance(*caller, geo.RegionCoordinate(n.Region)); d < minDistance {
			best, minDistance = n, d
		}
	}
	return best
}
