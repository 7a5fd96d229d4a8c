package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics surface consumed by services and middleware.
type Recorder interface {
	// Merge request lifecycle
	RecordMergeSubmission(mergeType string, result string)
	RecordDecision(action string, result string)
	RecordResend()

	// Delivery channels
	RecordWebhookDelivery(event string, delivered bool)
	RecordEmailDelivery(template string, success bool)

	// Provisioning
	RecordProvisionCompleted()
	RecordProvisionsExpired(count int)

	// Gauges updated by the background job
	SetPendingRequestsCount(count int)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the merge engine
type Metrics struct {
	// Merge request metrics
	MergeSubmissionsTotal *prometheus.CounterVec
	DecisionsTotal        *prometheus.CounterVec
	ResendsTotal          prometheus.Counter
	PendingRequests       prometheus.Gauge

	// Delivery metrics
	WebhookDeliveriesTotal *prometheus.CounterVec
	EmailDeliveriesTotal   *prometheus.CounterVec

	// Provisioning metrics
	ProvisionsCompletedTotal prometheus.Counter
	ProvisionsExpiredTotal   prometheus.Counter

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// If enabled=false, returns NoopMetrics (zero overhead).
// Uses sync.Once so Prometheus collectors are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		MergeSubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergegate_submissions_total",
				Help: "Total number of merge request submissions",
			},
			[]string{"merge_type", "result"}, // result: created, duplicate, error
		),
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergegate_decisions_total",
				Help: "Total number of admin decisions on merge requests",
			},
			[]string{"action", "result"}, // action: approve, reject
		),
		ResendsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mergegate_resends_total",
				Help: "Total number of notification resend operations",
			},
		),
		PendingRequests: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mergegate_pending_requests",
				Help: "Current number of merge requests awaiting review",
			},
		),
		WebhookDeliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergegate_webhook_deliveries_total",
				Help: "Total number of webhook delivery attempts",
			},
			[]string{"event", "result"}, // result: delivered, failed
		),
		EmailDeliveriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergegate_email_deliveries_total",
				Help: "Total number of transactional email delivery attempts",
			},
			[]string{"template", "result"},
		),
		ProvisionsCompletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mergegate_provisions_completed_total",
				Help: "Total number of auto-provisioned accounts that set a password",
			},
		),
		ProvisionsExpiredTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mergegate_provisions_expired_total",
				Help: "Total number of provision tokens expired by the sweeper",
			},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mergegate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mergegate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mergegate_http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

const (
	resultDelivered = "delivered"
	resultFailed    = "failed"
	resultSuccess   = "success"
	resultError     = "error"
)

// RecordMergeSubmission records an intake attempt
func (m *Metrics) RecordMergeSubmission(mergeType, result string) {
	m.MergeSubmissionsTotal.WithLabelValues(mergeType, result).Inc()
}

// RecordDecision records an admin decision attempt
func (m *Metrics) RecordDecision(action, result string) {
	m.DecisionsTotal.WithLabelValues(action, result).Inc()
}

// RecordResend records a notification resend operation
func (m *Metrics) RecordResend() {
	m.ResendsTotal.Inc()
}

// RecordWebhookDelivery records one webhook delivery outcome
func (m *Metrics) RecordWebhookDelivery(event string, delivered bool) {
	result := resultDelivered
	if !delivered {
		result = resultFailed
	}
	m.WebhookDeliveriesTotal.WithLabelValues(event, result).Inc()
}

// RecordEmailDelivery records one email delivery outcome
func (m *Metrics) RecordEmailDelivery(template string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.EmailDeliveriesTotal.WithLabelValues(template, result).Inc()
}

// RecordProvisionCompleted records a successful password-set flow
func (m *Metrics) RecordProvisionCompleted() {
	m.ProvisionsCompletedTotal.Inc()
}

// RecordProvisionsExpired records provisions expired by the sweeper
func (m *Metrics) RecordProvisionsExpired(count int) {
	m.ProvisionsExpiredTotal.Add(float64(count))
}

// SetPendingRequestsCount sets the review-queue gauge (periodic updates)
func (m *Metrics) SetPendingRequestsCount(count int) {
	m.PendingRequests.Set(float64(count))
}
