package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for catalog operations.
// Tracks operation outcomes, durations and requested page sizes per entity.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	PageSize          *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
}

// New creates the catalog metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refdata_catalog_operations_total",
			Help: "Total number of catalog operations by entity, operation and outcome",
		}, []string{"entity", "operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refdata_catalog_operation_duration_seconds",
			Help:    "Duration of catalog operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity", "operation"}),
		PageSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refdata_catalog_page_size",
			Help:    "Requested page size of list operations",
			Buckets: []float64{1, 5, 10, 20, 50, 100, 200},
		}, []string{"entity"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "refdata_catalog_cache_lookups_total",
			Help: "Read-through cache lookups by entity and result (hit, miss, error)",
		}, []string{"entity", "result"}),
	}
}

// ObserveOperation records the outcome and duration of an operation.
// Call with time.Now() at the start of the operation. Safe on a nil receiver.
func (m *Metrics) ObserveOperation(entity, operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(entity, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}

// ObservePageSize records the size requested by a list operation.
func (m *Metrics) ObservePageSize(entity string, size int) {
	if m == nil {
		return
	}
	m.PageSize.WithLabelValues(entity).Observe(float64(size))
}

// IncrementCache records a cache lookup result.
func (m *Metrics) IncrementCache(entity, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(entity, result).Inc()
}
