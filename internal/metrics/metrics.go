// Package metrics provides Prometheus instrumentation for the moderation
// service. It exposes counters for evaluation outcomes and category hits,
// and histograms for evaluation and classifier latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EvaluationsTotal counts evaluated messages, labeled by the derived
	// severity: "block", "warn", or "allow".
	EvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_evaluations_total",
		Help: "Total number of messages evaluated",
	}, []string{"severity"})

	// CategoryHitsTotal counts category triggers across all evaluations.
	CategoryHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_category_hits_total",
		Help: "Total number of category triggers",
	}, []string{"category"})

	// ClassifierRequestsTotal counts external classifier calls, labeled by
	// outcome: "signal" (usable response), "no_signal" (failed or malformed),
	// or "skipped" (budget exhausted or classifier disabled).
	ClassifierRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_classifier_requests_total",
		Help: "Total number of external classifier calls",
	}, []string{"outcome"})

	// EvaluationLatency records end-to-end evaluation latency in seconds,
	// including the classifier round trip when one is made.
	EvaluationLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_evaluation_latency_seconds",
		Help:    "Message evaluation latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// AuditWriteFailuresTotal counts audit entries that could not be
	// persisted. Audit writes are best effort; failures are logged, not
	// raised.
	AuditWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_audit_write_failures_total",
		Help: "Total number of failed audit store writes",
	})
)

func init() {
	prometheus.MustRegister(
		EvaluationsTotal,
		CategoryHitsTotal,
		ClassifierRequestsTotal,
		EvaluationLatency,
		AuditWriteFailuresTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
