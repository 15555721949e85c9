package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the import engine.
type Metrics struct {
	Registry      *prometheus.Registry
	RowsTotal     prometheus.Counter
	RejectedTotal *prometheus.CounterVec
	WritesTotal   *prometheus.CounterVec
	StoreDuration prometheus.Histogram
	RetriesTotal  prometheus.Counter
	ErrorsTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	rows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Total spreadsheet rows read by the import engine.",
		},
	)
	rejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_rows_rejected_total",
			Help: "Rows rejected during normalization, by failing field.",
		},
		[]string{"field"},
	)
	writes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_writes_total",
			Help: "Store write operations by kind and outcome.",
		},
		[]string{"op", "result"},
	)
	storeDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "import_store_request_duration_seconds",
			Help:    "Latency of record store calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "import_retries_total",
			Help: "Total retry attempts against the record store.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_errors_total",
			Help: "Store errors by classified type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(rows, rejected, writes, storeDuration, retries, errorsTotal)

	return &Metrics{
		Registry:      registry,
		RowsTotal:     rows,
		RejectedTotal: rejected,
		WritesTotal:   writes,
		StoreDuration: storeDuration,
		RetriesTotal:  retries,
		ErrorsTotal:   errorsTotal,
	}
}

// AddRows counts rows read from the input.
func (m *Metrics) AddRows(n int) {
	if m == nil {
		return
	}
	m.RowsTotal.Add(float64(n))
}

// IncRejected counts a normalization rejection for a field.
func (m *Metrics) IncRejected(field string) {
	if m == nil {
		return
	}
	m.RejectedTotal.WithLabelValues(field).Inc()
}

// IncWrite counts one store write outcome.
func (m *Metrics) IncWrite(op, result string) {
	if m == nil {
		return
	}
	m.WritesTotal.WithLabelValues(op, result).Inc()
}

// ObserveStore records the latency of one store call.
func (m *Metrics) ObserveStore(d time.Duration) {
	if m == nil {
		return
	}
	m.StoreDuration.Observe(d.Seconds())
}

// IncRetries counts one retry attempt.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError counts a classified store error.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
