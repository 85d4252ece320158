package paymentform

import (
	"time"

	"cardform/internal/models"

	"go.uber.org/zap"
)

// Observer receives every published form state
type Observer func(models.FormState)

// Submission results reported to MetricsCollector
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// MetricsCollector defines the interface for collecting form metrics
type MetricsCollector interface {
	// Input metrics
	RecordRejectedInput(field string)
	RecordValidationFailure(field string)

	// Submission metrics
	RecordSubmission(result string, duration time.Duration)
	RecordDroppedResult()
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger used for transitions and backend failures
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics MetricsCollector) Option {
	return func(c *Controller) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// WithSubmitTimeout bounds each backend call. Zero means no timeout.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.submitTimeout = d
	}
}

// WithID tags log lines with a session identifier
func WithID(id string) Option {
	return func(c *Controller) {
		c.id = id
	}
}
