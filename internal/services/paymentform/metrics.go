package paymentform

import "time"

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordRejectedInput(string)             {}
func (n *NoopMetricsCollector) RecordValidationFailure(string)         {}
func (n *NoopMetricsCollector) RecordSubmission(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordDroppedResult()                   {}
