package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeAborted = "aborted"
	OutcomeFailed  = "failed"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of search requests by outcome",
		},
		[]string{"backend", "outcome"},
	)

	SearchBackendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_backend_duration_seconds",
			Help:      "Catalog backend call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	SearchDebounceSupersededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_debounce_superseded_total",
			Help:      "Searches superseded by a newer query before dispatch or completion",
		},
	)

	FilterComposeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_compose_cache_total",
			Help:      "Filter composition memo hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RecentsOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recents_operations_total",
			Help:      "Recents cache operations by result",
		},
		[]string{"op", "result"},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live search sessions",
		},
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers search metrics on the default registry. Call from main.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchBackendDuration)
		prometheus.MustRegister(SearchDebounceSupersededTotal)
		prometheus.MustRegister(FilterComposeCacheTotal)
		prometheus.MustRegister(RecentsOperationsTotal)
		prometheus.MustRegister(SessionsActive)
	})
}
