// Package metrics holds the Prometheus collectors for analyses and queries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis results
const (
	ResultSuccess   = "success"
	ResultNoData    = "no_data"
	ResultMalformed = "malformed"
	ResultRejected  = "rejected"
	ResultError     = "error"
)

// Metrics is the set of collectors registered on its own registry
type Metrics struct {
	registry          *prometheus.Registry
	analyses          *prometheus.CounterVec
	studentsPerReport prometheus.Histogram
	queries           *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_analyses_total",
			Help: "Uploaded reports analyzed, by result.",
		}, []string{"result"}),
		studentsPerReport: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "attendance_students_per_dataset",
			Help:    "Student records extracted from each successfully analyzed report.",
			Buckets: []float64{1, 10, 25, 50, 100, 250, 500, 1000},
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_queries_total",
			Help: "Dataset queries, by kind (student, low_attendance, export) and result.",
		}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(
		m.analyses,
		m.studentsPerReport,
		m.queries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalysis records one analyze call. students is ignored unless result is ResultSuccess.
func (m *Metrics) ObserveAnalysis(result string, students int) {
	m.analyses.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.studentsPerReport.Observe(float64(students))
	}
}

// ObserveQuery records one read against a stored dataset
func (m *Metrics) ObserveQuery(kind, result string) {
	m.queries.WithLabelValues(kind, result).Inc()
}

// Handler exposes the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
