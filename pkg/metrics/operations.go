package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rutaventas"

// Operation names exported as the "operation" label.
const (
	OperationReport  = "report"
	OperationImport  = "csv_import"
	OperationArchive = "history_archive"
)

// OperationMetrics records duration and outcome of the heavier domain
// operations: report rendering, CSV imports and history archiving.
type OperationMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewOperationMetrics registers the operation metrics on reg. A nil registerer
// yields a no-op recorder.
func NewOperationMetrics(reg prometheus.Registerer) *OperationMetrics {
	if reg == nil {
		return &OperationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of domain operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_success_total",
		Help:      "Successful domain operations.",
	}, []string{"operation", "kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_failure_total",
		Help:      "Failed domain operations.",
	}, []string{"operation", "kind"})
	reg.MustRegister(duration, success, failure)
	return &OperationMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one run of operation/kind that started at start.
func (m *OperationMetrics) Observe(operation, kind string, start time.Time, err error) {
	if m == nil || m.duration == nil {
		return
	}
	op, k := normalizeLabel(operation), normalizeLabel(kind)
	m.duration.WithLabelValues(op, k).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failure.WithLabelValues(op, k).Inc()
		return
	}
	m.success.WithLabelValues(op, k).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
