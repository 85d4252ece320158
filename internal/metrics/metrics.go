// Package metrics exports payment form activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "cardform"
	subsystem = "form"
)

// Collector implements paymentform.MetricsCollector on a Prometheus registry
type Collector struct {
	rejectedInputs     *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	submitDuration     *prometheus.HistogramVec
	droppedResults     prometheus.Counter
	activeSessions     prometheus.Gauge
}

// NewCollector registers the form metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		rejectedInputs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rejected_inputs_total",
				Help:      "Field edits refused because of length or non-digit characters",
			},
			[]string{"field"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "validation_failures_total",
				Help:      "Fields that failed validation on a submit attempt",
			},
			[]string{"field"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submissions_total",
				Help:      "Completed backend submissions by result",
			},
			[]string{"result"},
		),
		submitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submission_duration_seconds",
				Help:      "Time spent waiting for the payment backend",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
			},
			[]string{"result"},
		),
		droppedResults: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dropped_results_total",
				Help:      "Backend results discarded because the form was closed first",
			},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_sessions",
				Help:      "Payment form sessions currently held in memory",
			},
		),
	}
}

func (c *Collector) RecordRejectedInput(field string) {
	c.rejectedInputs.WithLabelValues(field).Inc()
}

func (c *Collector) RecordValidationFailure(field string) {
	c.validationFailures.WithLabelValues(field).Inc()
}

func (c *Collector) RecordSubmission(result string, duration time.Duration) {
	c.submissions.WithLabelValues(result).Inc()
	c.submitDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (c *Collector) RecordDroppedResult() {
	c.droppedResults.Inc()
}

// SetActiveSessions reports the size of the session registry
func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}
