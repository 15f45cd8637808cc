// Package telemetry provides metrics collection for rating sessions.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-rankstudy/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks judgment throughput, snapshot activity, and session
// progress per rater.
type PrometheusMetrics struct {
	judgmentsRecorded *prometheus.CounterVec
	sessionEvents     *prometheus.CounterVec
	sessionGauges     *prometheus.GaugeVec
	operationLatency  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance whose metrics
// are registered with reg. A nil reg uses the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		judgmentsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankstudy_judgments_recorded_total",
				Help: "Total number of pairwise judgments accepted.",
			},
			[]string{"rater"},
		),
		sessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankstudy_session_events_total",
				Help: "Session lifecycle and failure events.",
			},
			[]string{"event", "rater"},
		),
		sessionGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rankstudy_session_state",
				Help: "Current session state values such as the cursor position.",
			},
			[]string{"metric", "rater"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rankstudy_operation_duration_seconds",
				Help:    "Execution time of session operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "rater"},
		),
	}
}

func raterLabel(labels map[string]string) string {
	if r, ok := labels["rater"]; ok && r != "" {
		return r
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation, raterLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	rater := raterLabel(labels)
	switch metric {
	case "judgments_recorded":
		pm.judgmentsRecorded.WithLabelValues(rater).Add(value)
	default:
		pm.sessionEvents.WithLabelValues(metric, rater).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.sessionGauges.WithLabelValues(metric, raterLabel(labels)).Set(value)
}
