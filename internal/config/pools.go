package config

import "github.com/csheoganj-del/deora-plaza-sub004/internal/pool"

func score(v int) *int { return &v }

// DefaultPools returns the API, CDN and database pools registered when the
// configuration names none.
func DefaultPools() []pool.PoolSpec {
	return []pool.PoolSpec{
		{
			Name:                       "API Load Balancer",
			Algorithm:                  pool.AlgorithmGeographic,
			HealthCheckIntervalSeconds: 30,
			SessionAffinity:            true,
			StickySessions:             true,
			Nodes: []pool.NodeSpec{
				{ID: "api_node_1", Name: "Primary API Server", URL: "https://primary-api.deoraplaza.com", Weight: 3, CurrentConnections: 450, MaxConnections: 500, ResponseTimeMs: 45, HealthScore: score(95), Region: "us-east-1"},
				{ID: "api_node_2", Name: "Secondary API Server - West", URL: "https://secondary-west-api.deoraplaza.com", Weight: 2, CurrentConnections: 120, MaxConnections: 300, ResponseTimeMs: 78, HealthScore: score(88), Region: "us-west-1"},
				{ID: "api_node_3", Name: "Secondary API Server - EU", URL: "https://secondary-eu-api.deoraplaza.com", Weight: 1, CurrentConnections: 85, MaxConnections: 250, ResponseTimeMs: 120, HealthScore: score(82), Region: "eu-west-1"},
			},
		},
		{
			Name:                       "CDN Load Balancer",
			Algorithm:                  pool.AlgorithmPerformanceBased,
			HealthCheckIntervalSeconds: 60,
			Nodes: []pool.NodeSpec{
				{ID: "cdn_node_1", Name: "CDN Node - US East", URL: "https://cdn-us-east.deoraplaza.com", Weight: 1, CurrentConnections: 800, MaxConnections: 1000, ResponseTimeMs: 25, HealthScore: score(98), Region: "us-east-1"},
				{ID: "cdn_node_2", Name: "CDN Node - US West", URL: "https://cdn-us-west.deoraplaza.com", Weight: 1, CurrentConnections: 400, MaxConnections: 800, ResponseTimeMs: 35, HealthScore: score(92), Region: "us-west-1"},
				{ID: "cdn_node_3", Name: "CDN Node - EU", URL: "https://cdn-eu.deoraplaza.com", Weight: 1, CurrentConnections: 300, MaxConnections: 600, ResponseTimeMs: 45, HealthScore: score(90), Region: "eu-west-1"},
				{ID: "cdn_node_4", Name: "CDN Node - Asia", URL: "https://cdn-asia.deoraplaza.com", Weight: 1, CurrentConnections: 200, MaxConnections: 400, ResponseTimeMs: 65, HealthScore: score(85), Region: "ap-southeast-1"},
			},
		},
		{
			Name:                       "Database Load Balancer",
			Algorithm:                  pool.AlgorithmLeastConnections,
			HealthCheckIntervalSeconds: 15,
			SessionAffinity:            true,
			StickySessions:             true,
			Nodes: []pool.NodeSpec{
				{ID: "db_primary", Name: "Primary Database", URL: "https://db-primary.deoraplaza.com", Weight: 1, CurrentConnections: 150, MaxConnections: 200, ResponseTimeMs: 15, HealthScore: score(96), Region: "us-east-1"},
				{ID: "db_replica_1", Name: "Database Replica 1", URL: "https://db-replica-1.deoraplaza.com", Weight: 1, CurrentConnections: 80, MaxConnections: 150, ResponseTimeMs: 20, HealthScore: score(94), Region: "us-east-1"},
				{ID: "db_replica_2", Name: "Database Replica 2", URL: "https://db-replica-2.deoraplaza.com", Weight: 1, CurrentConnections: 60, MaxConnections: 150, ResponseTimeMs: 25, HealthScore: score(92), Region: "us-west-1"},
			},
		},
	}
}
