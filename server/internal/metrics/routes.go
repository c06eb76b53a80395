package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RoutesRegistered tracks the number of routes in the live table per module.
	RoutesRegistered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "converge_routes_registered",
			Help: "Number of routes in the live route table",
		},
		[]string{"module_id"},
	)

	// RouteGenerations counts route generation passes by result.
	RouteGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converge_route_generations_total",
			Help: "Total number of route generation passes",
		},
		[]string{"status"},
	)

	// RouteGenerationDuration measures a full generation pass in seconds.
	RouteGenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "converge_route_generation_duration_seconds",
			Help:    "Route generation duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	// BindingFailures counts requests whose context binding could not be resolved.
	BindingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converge_binding_failures_total",
			Help: "Total number of unresolved module/version/cluster bindings",
		},
		[]string{"stage"},
	)
)

func registerRouteMetrics() error {
	return registerAll(
		RoutesRegistered,
		RouteGenerations,
		RouteGenerationDuration,
		BindingFailures,
	)
}

// RecordRouteTable replaces the per-module route gauge with the given counts.
func RecordRouteTable(perModule map[string]int) {
	RoutesRegistered.Reset()
	for moduleID, count := range perModule {
		RoutesRegistered.WithLabelValues(moduleID).Set(float64(count))
	}
}
