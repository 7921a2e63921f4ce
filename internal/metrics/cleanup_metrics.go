package metrics

import "github.com/prometheus/client_golang/prometheus"

// CleanupMetrics описывает работу воркера очистки просроченных сессий.
type CleanupMetrics struct {
	runs        *prometheus.CounterVec
	deleted     prometheus.Counter
	lastDeleted prometheus.Gauge
}

// NewCleanupMetrics регистрирует метрики очистки в DefaultRegisterer.
func NewCleanupMetrics() *CleanupMetrics {
	return NewCleanupMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCleanupMetricsWithRegisterer регистрирует метрики очистки в переданном registerer.
func NewCleanupMetricsWithRegisterer(registerer prometheus.Registerer) *CleanupMetrics {
	return &CleanupMetrics{
		runs: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "parceltrack_session_cleanup_runs_total",
			Help: "Total number of session cleanup runs grouped by result.",
		}, []string{"result"}),
		deleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "parceltrack_session_cleanup_deleted_total",
			Help: "Total number of deleted expired sessions.",
		}),
		lastDeleted: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "parceltrack_session_cleanup_last_deleted",
			Help: "Number of sessions deleted during the last cleanup run.",
		}),
	}
}

// RecordRun фиксирует завершённый цикл очистки. Безопасен для nil.
func (m *CleanupMetrics) RecordRun(result string, deleted int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	if result == "ok" {
		m.lastDeleted.Set(float64(deleted))
	}
}

// AddDeleted увеличивает общий счётчик удалённых сессий.
func (m *CleanupMetrics) AddDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.Add(float64(n))
}
