// Package metrics exposes Prometheus instrumentation for the audit
// engine.
//
// Metrics:
//   - ledgerhawk_audit_runs_total: Completed runs by terminal state
//   - ledgerhawk_audit_run_duration_seconds: End-to-end run duration
//   - ledgerhawk_rule_evaluations_total: Rule evaluations by verdict
//   - ledgerhawk_rules_skipped_total: Rules skipped for invalid conditions
//   - ledgerhawk_retrieval_duration_seconds: Retrieval phase duration
//   - ledgerhawk_retrieval_candidates: Candidates surfaced per run
//   - ledgerhawk_provider_requests_total: Gateway requests by capability and outcome
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledgerhawk"

// Metrics holds all collectors and the registry they are registered
// with. Methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	ruleEvaluations  *prometheus.CounterVec
	rulesSkipped     prometheus.Counter
	retrievalLatency prometheus.Histogram
	candidates       prometheus.Histogram
	providerRequests *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_runs_total",
				Help:      "Total number of audit runs by terminal state",
			},
			[]string{"state"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audit_run_duration_seconds",
				Help:      "End-to-end duration of an audit run in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~82s
			},
		),

		ruleEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_evaluations_total",
				Help:      "Total number of rule evaluations by verdict",
			},
			[]string{"verdict"},
		),

		rulesSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rules_skipped_total",
				Help:      "Total number of rules skipped for unparsable conditions",
			},
		),

		retrievalLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_duration_seconds",
				Help:      "Duration of the retrieval phase in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),

		candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_candidates",
				Help:      "Number of candidate rules surfaced per run",
				Buckets:   prometheus.LinearBuckets(0, 5, 11), // 0 to 50
			},
		),

		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of model gateway requests by capability and outcome",
			},
			[]string{"capability", "outcome"},
		),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.ruleEvaluations,
		m.rulesSkipped,
		m.retrievalLatency,
		m.candidates,
		m.providerRequests,
	)

	return m
}

// RecordRun records a completed run with its terminal state and duration.
func (m *Metrics) RecordRun(state string, seconds float64) {
	m.runsTotal.WithLabelValues(state).Inc()
	m.runDuration.Observe(seconds)
}

// RecordEvaluation records a single rule evaluation by verdict.
func (m *Metrics) RecordEvaluation(verdict string) {
	m.ruleEvaluations.WithLabelValues(verdict).Inc()
}

// RecordSkip records a rule skipped for an unparsable condition.
func (m *Metrics) RecordSkip() {
	m.rulesSkipped.Inc()
}

// RecordRetrieval records a completed retrieval phase.
func (m *Metrics) RecordRetrieval(seconds float64, candidates int) {
	m.retrievalLatency.Observe(seconds)
	m.candidates.Observe(float64(candidates))
}

// RecordProviderRequest records a gateway request outcome.
// Capability is "chat" or "embedding"; outcome is "success" or "error".
func (m *Metrics) RecordProviderRequest(capability, outcome string) {
	m.providerRequests.WithLabelValues(capability, outcome).Inc()
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
