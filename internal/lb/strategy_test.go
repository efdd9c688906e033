package lb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

func TestLeastConnections_PicksFewestFirstSeenOnTie(t *testing.T) {
	nodes := []pool.Node{
		{ID: "a", CurrentConnections: 40},
		{ID: "b", CurrentConnections: 10},
		{ID: "c", CurrentConnections: 10},
	}
	assert.Equal(t, "b", LeastConnections{}.Select(nodes, nil).ID)
}

func TestGeographic_PicksNearestRegion(t *testing.T) {
	nodes := []pool.Node{
		{ID: "eu", Region: "eu-west-1", CurrentConnections: 1},
		{ID: "us", Region: "us-east-1", CurrentConnections: 500},
	}
	caller := geo.Coordinate{Latitude: 40.0, Longitude: -73.0}
	assert.Equal(t, "us", Geographic{}.Select(nodes, &caller).ID)

	london := geo.Coordinate{Latitude: 51.5, Longitude: 0}
	assert.Equal(t, "eu", Geographic{}.Select(nodes, &london).ID)
}

func TestGeographic_NilCallerFallsBackToLeastConnections(t *testing.T) {
	nodes := []pool.Node{
		{ID: "us", Region: "us-east-1", CurrentConnections: 500},
		{ID: "eu", Region: "eu-west-1", CurrentConnections: 1},
	}
	assert.Equal(t, "eu", Geographic{}.Select(nodes, nil).ID)
}

func TestGeographic_UnknownRegionMapsToOrigin(t *testing.T) {
	nodes := []pool.Node{
		{ID: "sg", Region: "ap-southeast-1"},
		{ID: "unknown", Region: "somewhere"},
	}
	gulfOfGuinea := geo.Coordinate{Latitude: 0.5, Longitude: 0.5}
	assert.Equal(t, "unknown", Geographic{}.Select(nodes, &gulfOfGuinea).ID)
}

func TestPerformanceBased_PrefersHealthAndSpareCapacity(t *testing.T) {
	nodes := []pool.Node{
		// 98*0.6 + 0.2*40 = 66.8
		{ID: "busy", HealthScore: 98, CurrentConnections: 800, MaxConnections: 1000},
		// 92*0.6 + 0.5*40 = 75.2
		{ID: "roomy", HealthScore: 92, CurrentConnections: 400, MaxConnections: 800},
		// 85*0.6 + 0.5*40 = 71
		{ID: "slow", HealthScore: 85, CurrentConnections: 200, MaxConnections: 400},
	}
	assert.Equal(t, "roomy", PerformanceBased{}.Select(nodes, nil).ID)
	assert.InDelta(t, 75.2, PerformanceScore(nodes[1]), 1e-9)
}

func TestPerformanceBased_TieGoesToFirst(t *testing.T) {
	nodes := []pool.Node{
		{ID: "a", HealthScore: 80},
		{ID: "b", HealthScore: 80},
	}
	assert.Equal(t, "a", PerformanceBased{}.Select(nodes, nil).ID)
}
