package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций для метки result.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// TrackingMetrics содержит метрики операций с заказами и отслеживанием.
type TrackingMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	stepsAppended     *prometheus.CounterVec
	lookups           *prometheus.CounterVec
	corruptRecords    prometheus.Counter
	outboxEvents      *prometheus.CounterVec
}

// NewTrackingMetrics регистрирует метрики в DefaultRegisterer.
func NewTrackingMetrics() *TrackingMetrics {
	return NewTrackingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewTrackingMetricsWithRegisterer регистрирует метрики в переданном registerer.
func NewTrackingMetricsWithRegisterer(registerer prometheus.Registerer) *TrackingMetrics {
	return &TrackingMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "parceltrack_order_operations_total",
			Help: "Total number of order operations grouped by operation and result.",
		}, []string{"operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "parceltrack_order_operation_duration_seconds",
			Help:    "Duration of order operations in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		stepsAppended: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "parceltrack_tracking_steps_appended_total",
			Help: "Total number of tracking steps appended grouped by step type.",
		}, []string{"step_type"}),
		lookups: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "parceltrack_tracking_lookups_total",
			Help: "Total number of public tracking lookups grouped by result.",
		}, []string{"result"}),
		corruptRecords: registerCounter(registerer, prometheus.CounterOpts{
			Name: "parceltrack_corrupt_step_records_total",
			Help: "Total number of stored tracking steps that could not be decoded.",
		}),
		outboxEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "parceltrack_outbox_events_enqueued_total",
			Help: "Total number of order events written to the outbox.",
		}, []string{"event_type"}),
	}
}

// ObserveOperation фиксирует результат и длительность операции. Безопасен для nil.
func (m *TrackingMetrics) ObserveOperation(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordStepAppended увеличивает счётчик добавленных шагов.
func (m *TrackingMetrics) RecordStepAppended(stepType string) {
	if m == nil {
		return
	}
	m.stepsAppended.WithLabelValues(stepType).Inc()
}

// RecordLookup фиксирует результат публичного поиска по коду.
func (m *TrackingMetrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(result).Inc()
}

// RecordCorruptRecord увеличивает счётчик повреждённых записей шагов.
func (m *TrackingMetrics) RecordCorruptRecord() {
	if m == nil {
		return
	}
	m.corruptRecords.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий, записанных в outbox.
func (m *TrackingMetrics) RecordOutboxEvent(eventType string) {
	if m == nil {
		return
	}
	m.outboxEvents.WithLabelValues(eventType).Inc()
}
