package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DataFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_fetch_total",
		Help:      "Total number of price series fetches by provider and status",
	}, []string{"provider", "status"})

	DataFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "data_fetch_duration_seconds",
		Help:      "Duration of price series fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	DataCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_cache_hits_total",
		Help:      "Total number of price series served from cache",
	})
)

// RecordFetch records a provider fetch.
// status should be one of: "success", "unavailable", "error"
func RecordFetch(provider, status string, durationSeconds float64) {
	DataFetchTotal.WithLabelValues(provider, status).Inc()
	DataFetchDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordCacheHit records a series served from cache.
func RecordCacheHit() {
	DataCacheHitsTotal.Inc()
}
