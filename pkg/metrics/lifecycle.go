package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TenantWipeMetrics tracks the destructive tenant lifecycle operations.
type TenantWipeMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewTenantWipeMetrics registers tenant wipe metrics on the provided registerer.
func NewTenantWipeMetrics(reg prometheus.Registerer) *TenantWipeMetrics {
	if reg == nil {
		return &TenantWipeMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tenant_wipe_duration_seconds",
		Help:    "Duration of tenant data wipe operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenant_wipe_success",
		Help: "Successful tenant wipe operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenant_wipe_failure",
		Help: "Failed tenant wipe operations.",
	}, []string{"operation"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenant_wipe_rows_deleted_total",
		Help: "Rows removed by tenant wipe operations, per table.",
	}, []string{"operation", "table"})
	reg.MustRegister(duration, success, failure, rows)
	return &TenantWipeMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rows:     rows,
	}
}

// ObserveDuration records how long the named operation took.
func (t *TenantWipeMetrics) ObserveDuration(operation string, duration time.Duration) {
	if t == nil || t.duration == nil {
		return
	}
	t.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (t *TenantWipeMetrics) IncSuccess(operation string) {
	if t == nil || t.success == nil {
		return
	}
	t.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (t *TenantWipeMetrics) IncFailure(operation string) {
	if t == nil || t.failure == nil {
		return
	}
	t.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// AddRowsDeleted accumulates deleted-row counts per table.
func (t *TenantWipeMetrics) AddRowsDeleted(operation, table string, count int64) {
	if t == nil || t.rows == nil || count <= 0 {
		return
	}
	t.rows.WithLabelValues(normalizeLabel(operation), normalizeLabel(table)).Add(float64(count))
}
