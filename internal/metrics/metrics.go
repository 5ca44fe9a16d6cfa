// Package metrics exposes Prometheus instruments for the validation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every instrument the engine records. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Validation outcomes by category and where the result came from
	Validations *prometheus.CounterVec

	// End-to-end validate latency, cache hits included
	ValidateLatency prometheus.Histogram

	// Individual probe latency by kind
	ProbeLatency *prometheus.HistogramVec

	// Cache operations by op and result
	CacheOps *prometheus.CounterVec

	// Current list sizes
	ListSize *prometheus.GaugeVec

	// List source fetch outcomes
	ListFetches *prometheus.CounterVec

	// Worker jobs by outcome
	Jobs *prometheus.CounterVec
}

// New registers all instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_validator_validations_total",
			Help: "Validation results by domain type and source",
		}, []string{"domain_type", "source"}), // source: "probe", "cache", "override"

		ValidateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "domain_validator_validate_duration_seconds",
			Help:    "Duration of a single domain validation",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),

		ProbeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domain_validator_probe_duration_seconds",
			Help:    "Duration of network probes by kind",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"probe"}), // probe: "mx", "a", "http", "tls"

		CacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_validator_cache_operations_total",
			Help: "Cache operations by op and result",
		}, []string{"op", "result"}),

		ListSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "domain_validator_list_domains",
			Help: "Number of domains held per list",
		}, []string{"list"}),

		ListFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_validator_list_fetches_total",
			Help: "Remote list fetches by result",
		}, []string{"result"}),

		Jobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_validator_jobs_total",
			Help: "Worker jobs by outcome",
		}, []string{"outcome"}),
	}
}

// IncValidation records a finished validation.
func (m *Metrics) IncValidation(domainType, source string) {
	if m != nil {
		m.Validations.WithLabelValues(domainType, source).Inc()
	}
}

// ObserveValidate records a full validate call.
func (m *Metrics) ObserveValidate(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}

// ObserveProbe records the duration of one probe.
func (m *Metrics) ObserveProbe(probe string, d time.Duration) {
	if m != nil {
		m.ProbeLatency.WithLabelValues(probe).Observe(d.Seconds())
	}
}

// IncCacheOp records a cache operation.
func (m *Metrics) IncCacheOp(op, result string) {
	if m != nil {
		m.CacheOps.WithLabelValues(op, result).Inc()
	}
}

// SetListSize records the size of a list after a refresh.
func (m *Metrics) SetListSize(list string, n int) {
	if m != nil {
		m.ListSize.WithLabelValues(list).Set(float64(n))
	}
}

// IncListFetch records a remote list fetch.
func (m *Metrics) IncListFetch(result string) {
	if m != nil {
		m.ListFetches.WithLabelValues(result).Inc()
	}
}

// IncJob records a worker job outcome.
func (m *Metrics) IncJob(outcome string) {
	if m != nil {
		m.Jobs.WithLabelValues(outcome).Inc()
	}
}
