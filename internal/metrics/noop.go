package metrics

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty, providing zero overhead when metrics are disabled.
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordMergeSubmission(mergeType, result string)     {}
func (n *NoopMetrics) RecordDecision(action, result string)               {}
func (n *NoopMetrics) RecordResend()                                      {}
func (n *NoopMetrics) RecordWebhookDelivery(event string, delivered bool) {}
func (n *NoopMetrics) RecordEmailDelivery(template string, success bool)  {}
func (n *NoopMetrics) RecordProvisionCompleted()                          {}
func (n *NoopMetrics) RecordProvisionsExpired(count int)                  {}
func (n *NoopMetrics) SetPendingRequestsCount(count int)                  {}
