// Package metrics exposes the routing engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeHealthScore tracks the latest health score of each node
	NodeHealthScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routing_node_health_score",
			Help: "Latest 0-100 health score of a load-balanced node",
		},
		[]string{"pool", "node"},
	)

	// NodeEnabled is 1 for enabled nodes and 0 for disabled ones
	NodeEnabled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routing_node_enabled",
			Help: "Whether a node is eligible for selection (1) or not (0)",
		},
		[]string{"pool", "node"},
	)

	// NodeConnections tracks current connections per node
	NodeConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routing_node_connections",
			Help: "Current connections reported for a node",
		},
		[]string{"pool", "node"},
	)

	// NodeWeight tracks the selection weight per node
	NodeWeight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routing_node_weight",
			Help: "Selection weight of a node",
		},
		[]string{"pool", "node"},
	)

	// SelectionsTotal counts selection requests by outcome
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_selections_total",
			Help: "Total number of node selections by pool, algorithm and result",
		},
		[]string{"pool", "algorithm", "result"},
	)

	// NodeTransitionsTotal counts hysteresis transitions
	NodeTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_node_transitions_total",
			Help: "Total number of node enable/disable transitions",
		},
		[]string{"pool", "node", "state"},
	)

	// TrafficSamplesTotal counts samples appended to traffic windows
	TrafficSamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_traffic_samples_total",
			Help: "Total number of traffic samples recorded per pool",
		},
		[]string{"pool"},
	)

	// RoutesCreatedTotal counts created routes by type
	RoutesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routing_routes_created_total",
			Help: "Total number of routes created by route type",
		},
		[]string{"route_type"},
	)

	// MonitorTickDuration tracks how long one monitor tick takes
	MonitorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routing_monitor_tick_duration_seconds",
			Help:    "Duration of a monitor tick across all pools in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
	)
)

// Selection results
const (
	ResultSelected  = "selected"
	ResultNoHealthy = "no_healthy_node"
	ResultNotFound  = "not_found"
)

// UnknownPool is the pool label for selections against unregistered pools.
const UnknownPool = "unknown"

// RecordNode publishes a node's current state
func RecordNode(pool, node string, healthScore, connections, weight int, enabled bool) {
	NodeHealthScore.WithLabelValues(pool, node).Set(float64(healthScore))
	NodeConnections.WithLabelValues(pool, node).Set(float64(connections))
	NodeWeight.WithLabelValues(pool, node).Set(float64(weight))
	if enabled {
		NodeEnabled.WithLabelValues(pool, node).Set(1)
	} else {
		NodeEnabled.WithLabelValues(pool, node).Set(0)
	}
}

// RecordSelection increments the selection counter
func RecordSelection(pool, algorithm, result string) {
	SelectionsTotal.WithLabelValues(pool, algorithm, result).Inc()
}

// RecordTransition increments the transition counter for a node
func RecordTransition(pool, node, state string) {
	NodeTransitionsTotal.WithLabelValues(pool, node, state).Inc()
}

// RecordTrafficSample increments the sample counter for a pool
func RecordTrafficSample(pool string) {
	TrafficSamplesTotal.WithLabelValues(pool).Inc()
}

// RecordRouteCreated increments the route counter for a route type
func RecordRouteCreated(routeType string) {
	RoutesCreatedTotal.WithLabelValues(routeType).Inc()
}

// RecordTickDuration observes a monitor tick duration in seconds
func RecordTickDuration(durationSeconds float64) {
	MonitorTickDuration.Observe(durationSeconds)
}
