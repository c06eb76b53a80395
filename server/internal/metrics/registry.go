package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RegistryQueryDuration measures registry database queries by operation.
	RegistryQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "converge_registry_query_duration_seconds",
			Help: "Registry database query duration in seconds",
			// 100µs to 10s
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"operation"},
	)

	// RegistryLoads counts registry loads by source and status.
	RegistryLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "converge_registry_loads_total",
			Help: "Total number of registry loads",
		},
		[]string{"source", "status"},
	)

	// RegistryModules tracks the number of modules in the last loaded registry.
	RegistryModules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "converge_registry_modules",
			Help: "Number of modules in the last loaded registry",
		},
	)
)

func registerRegistryMetrics() error {
	return registerAll(
		RegistryQueryDuration,
		RegistryLoads,
		RegistryModules,
	)
}

// StatusLabel maps an error to the status label used by counters.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
