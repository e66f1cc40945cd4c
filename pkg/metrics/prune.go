package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prune action label values.
const (
	PruneActionKept        = "kept"
	PruneActionProtected   = "protected"
	PruneActionSoftTrimmed = "soft_trimmed"
	PruneActionHardCleared = "hard_cleared"
)

// initPruneMetrics initializes pruning metrics.
func (m *Manager) initPruneMetrics(cfg Config) {
	m.pruneRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prune_requests_total",
			Help: "Total number of prune requests by status",
		},
		[]string{"status"},
	)

	m.pruneActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prune_actions_total",
			Help: "Total number of tool results handled by prune action",
		},
		[]string{"action"},
	)

	m.pruneDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prune_duration_seconds",
			Help:    "Prune request duration in seconds",
			Buckets: cfg.PruneDurationBuckets,
		},
		[]string{"status"},
	)

	m.pruneCharsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prune_chars_saved_total",
			Help: "Total number of characters removed by pruning",
		},
	)

	m.registry.MustRegister(m.pruneRequests)
	m.registry.MustRegister(m.pruneActions)
	m.registry.MustRegister(m.pruneDuration)
	m.registry.MustRegister(m.pruneCharsSaved)
}

// RecordPruneRequest records a prune request with its outcome and duration.
func (m *Manager) RecordPruneRequest(status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.pruneRequests.WithLabelValues(status).Inc()
	m.pruneDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordPruneAction records the action applied to a single tool result.
func (m *Manager) RecordPruneAction(action string) {
	if !m.enabled {
		return
	}
	m.pruneActions.WithLabelValues(action).Inc()
}

// AddPruneCharsSaved adds the number of characters a prune pass removed.
func (m *Manager) AddPruneCharsSaved(chars int) {
	if !m.enabled || chars <= 0 {
		return
	}
	m.pruneCharsSaved.Add(float64(chars))
}
