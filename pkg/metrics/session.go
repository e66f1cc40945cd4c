package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Compaction mode label values.
const (
	CompactionModeSummarizer = "summarizer"
	CompactionModeFallback   = "fallback"
)

// initSessionMetrics initializes session memory metrics.
func (m *Manager) initSessionMetrics(cfg Config) {
	m.sessionActivities = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_activities_total",
			Help: "Total number of recorded session activities by persistence outcome",
		},
		[]string{"persisted"},
	)

	m.sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of live session stores",
		},
	)

	m.compactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_compactions_total",
			Help: "Total number of session compactions by summary mode",
		},
		[]string{"mode"},
	)

	m.sharedSetWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shared_set_writes_total",
			Help: "Total number of shared set membership writes by outcome",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(m.sessionActivities)
	m.registry.MustRegister(m.sessionsActive)
	m.registry.MustRegister(m.compactions)
	m.registry.MustRegister(m.sharedSetWrites)
}

// RecordActivity records a logged activity and whether it reached storage.
func (m *Manager) RecordActivity(persisted bool) {
	if !m.enabled {
		return
	}
	if persisted {
		m.sessionActivities.WithLabelValues("true").Inc()
	} else {
		m.sessionActivities.WithLabelValues("false").Inc()
	}
}

// SetActiveSessions sets the current number of live session stores.
func (m *Manager) SetActiveSessions(count float64) {
	if !m.enabled {
		return
	}
	m.sessionsActive.Set(count)
}

// RecordCompaction records a session compaction and which summary path ran.
func (m *Manager) RecordCompaction(mode string) {
	if !m.enabled {
		return
	}
	m.compactions.WithLabelValues(mode).Inc()
}

// RecordSharedSetWrite records a shared set write and whether it degraded
// to local-only membership.
func (m *Manager) RecordSharedSetWrite(persisted bool) {
	if !m.enabled {
		return
	}
	if persisted {
		m.sharedSetWrites.WithLabelValues("ok").Inc()
	} else {
		m.sharedSetWrites.WithLabelValues("degraded").Inc()
	}
}
