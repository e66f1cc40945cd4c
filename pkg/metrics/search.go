package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initSearchMetrics initializes memory search metrics.
func (m *Manager) initSearchMetrics(cfg Config) {
	m.searchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_search_requests_total",
			Help: "Total number of memory search requests by status",
		},
		[]string{"status"},
	)

	m.searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memory_search_duration_seconds",
			Help:    "Memory search duration in seconds",
			Buckets: cfg.SearchDurationBuckets,
		},
		[]string{"status"},
	)

	m.searchResultCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memory_search_result_count",
			Help:    "Number of candidates returned per search",
			Buckets: cfg.SearchResultBuckets,
		},
	)

	m.registry.MustRegister(m.searchRequests)
	m.registry.MustRegister(m.searchDuration)
	m.registry.MustRegister(m.searchResultCount)
}

// RecordSearch records a memory search with its outcome, result count, and duration.
func (m *Manager) RecordSearch(status string, results int, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.searchRequests.WithLabelValues(status).Inc()
	m.searchDuration.WithLabelValues(status).Observe(duration.Seconds())
	if status == "ok" {
		m.searchResultCount.Observe(float64(results))
	}
}
