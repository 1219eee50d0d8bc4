package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	// CacheTierTotal counts per-tier cache outcomes. result is "hit", "miss" or "error".
	CacheTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusedex",
			Name:      "cache_tier_total",
			Help:      "Cache lookups by cascade, tier and outcome",
		},
		[]string{"cache", "tier", "result"},
	)

	RetrieverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fusedex",
			Name:      "retriever_duration_seconds",
			Help:      "Retriever call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"retriever"},
	)

	RetrieverErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusedex",
			Name:      "retriever_errors_total",
			Help:      "Total retriever failures and timeouts",
		},
		[]string{"retriever"},
	)

	// SearchDegradedTotal counts responses served from fewer signals than requested.
	SearchDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusedex",
			Name:      "search_degraded_total",
			Help:      "Degraded search responses by cause",
		},
		[]string{"reason"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fusedex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode", "cache"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(CacheTierTotal)
	prometheus.MustRegister(RetrieverDuration)
	prometheus.MustRegister(RetrieverErrorsTotal)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(SearchDuration)
	searchMetricsRegistered = true
}
