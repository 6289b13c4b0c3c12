// Package metrics exposes Prometheus instrumentation for condition
// evaluation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks condition evaluation outcomes.
//
// Metrics:
//   - janus_condition_evaluations_total: evaluations by outcome (match, no_match, error)
//   - janus_condition_evaluation_duration_seconds: evaluation duration
//   - janus_condition_failures_total: evaluation failures by error kind
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	failuresTotal      *prometheus.CounterVec
}

// NewEvaluationMetrics creates and registers evaluation metrics with the
// provided registry.
func NewEvaluationMetrics(namespace, subsystem string, registry *prometheus.Registry) *EvaluationMetrics {
	m := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "condition_evaluations_total",
				Help:      "Total number of condition evaluations",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "condition_evaluation_duration_seconds",
				Help:      "Duration of condition evaluation in seconds",
				// Evaluations should be fast unless an expansion blocks.
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "condition_failures_total",
				Help:      "Total number of condition evaluation failures by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.failuresTotal,
	)

	return m
}

// RecordEvaluation records one completed evaluation.
func (m *EvaluationMetrics) RecordEvaluation(matched bool, failureKind string, duration time.Duration) {
	if m == nil {
		return
	}

	outcome := "no_match"
	switch {
	case failureKind != "":
		outcome = "error"
		m.failuresTotal.WithLabelValues(failureKind).Inc()
	case matched:
		outcome = "match"
	}

	m.evaluationsTotal.WithLabelValues(outcome).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}
