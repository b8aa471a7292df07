package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backing-engine Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unisearch",
			Name:      "engine_requests_total",
			Help:      "Total number of backing-engine requests",
		},
		[]string{"op", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "unisearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Backing-engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	RegistryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unisearch",
			Name:      "registry_cache_total",
			Help:      "Registry cache hits and misses",
		},
		[]string{"registry", "result"}, // "hit" / "miss"
	)
)

// RegisterEngineMetrics registers engine and registry metrics explicitly (no init()).
func RegisterEngineMetrics() {
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(RegistryCacheTotal)
}
