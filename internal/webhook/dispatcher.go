// Package webhook signs and delivers partner notifications. Delivery is
// best-effort: failures are logged and reported as an undelivered Result,
// never as an error that could roll back the state transition that
// triggered the send.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Outbound header names. The sender marker lets partners route and verify
// callbacks without parsing the body first.
const (
	HeaderSender    = "X-MergeGate-Sender"
	HeaderEvent     = "X-MergeGate-Event"
	HeaderSignature = "X-MergeGate-Signature"

	senderValue = "mergegate"
)

// Default delivery configuration
const (
	defaultTimeout            = 5 * time.Second
	defaultMaxRetries         = 2
	defaultInitialRetryDelay  = 500 * time.Millisecond
	defaultMaxRetryDelay      = 2 * time.Second
	defaultRetryDelayMultiple = 2.0
)

// Result reports the outcome of one delivery attempt chain.
type Result struct {
	Delivered  bool `json:"delivered"`
	HTTPStatus int  `json:"http_status,omitempty"`
}

// Dispatcher delivers signed webhook payloads with bounded timeout and
// exponential-backoff retry.
type Dispatcher struct {
	httpClient         *http.Client
	maxRetries         int
	initialRetryDelay  time.Duration
	maxRetryDelay      time.Duration
	retryDelayMultiple float64
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithTimeout bounds each delivery attempt
func WithTimeout(d time.Duration) Option {
	return func(w *Dispatcher) {
		if d > 0 {
			w.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(w *Dispatcher) {
		if n >= 0 {
			w.maxRetries = n
		}
	}
}

// WithInitialRetryDelay sets the delay before the first retry
func WithInitialRetryDelay(d time.Duration) Option {
	return func(w *Dispatcher) {
		if d > 0 {
			w.initialRetryDelay = d
		}
	}
}

// WithMaxRetryDelay caps the delay between retries
func WithMaxRetryDelay(d time.Duration) Option {
	return func(w *Dispatcher) {
		if d > 0 {
			w.maxRetryDelay = d
		}
	}
}

// WithHTTPClient sets a custom http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(w *Dispatcher) {
		if httpClient != nil {
			w.httpClient = httpClient
		}
	}
}

// NewDispatcher creates a webhook dispatcher with the given options
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		httpClient:         &http.Client{Timeout: defaultTimeout},
		maxRetries:         defaultMaxRetries,
		initialRetryDelay:  defaultInitialRetryDelay,
		maxRetryDelay:      defaultMaxRetryDelay,
		retryDelayMultiple: defaultRetryDelayMultiple,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Sign computes the hex-encoded HMAC-SHA256 signature of body with the
// partner's webhook secret.
func Sign(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Send serializes, signs, and POSTs the payload to the partner URL. An
// empty URL is a no-op success (the partner opted out of webhooks).
// Retries on network errors, 5xx, and 429; any terminal failure is logged
// and returned as Delivered=false.
func (d *Dispatcher) Send(ctx context.Context, url, secret string, payload Payload) Result {
	if url == "" {
		return Result{Delivered: true}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook: failed to marshal payload for request %s: %v", payload.RequestID, err)
		return Result{}
	}
	signature := Sign(secret, body)

	var lastStatus int
	delay := d.initialRetryDelay

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				log.Printf("webhook: context cancelled delivering %s for request %s",
					payload.Event, payload.RequestID)
				return Result{HTTPStatus: lastStatus}
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * d.retryDelayMultiple)
				if delay > d.maxRetryDelay {
					delay = d.maxRetryDelay
				}
			}
		}

		status, retryable := d.attempt(ctx, url, signature, payload.Event, body)
		lastStatus = status
		if status >= 200 && status < 300 {
			return Result{Delivered: true, HTTPStatus: status}
		}
		if !retryable {
			break
		}
	}

	log.Printf("webhook: delivery failed for request %s (event %s, last status %d)",
		payload.RequestID, payload.Event, lastStatus)
	return Result{HTTPStatus: lastStatus}
}

// attempt performs a single POST and reports whether a retry is worthwhile
func (d *Dispatcher) attempt(
	ctx context.Context,
	url, signature string,
	event Event,
	body []byte,
) (status int, retryable bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSender, senderValue)
	req.Header.Set(HeaderEvent, string(event))
	req.Header.Set(HeaderSignature, signature)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are retryable
		return 0, true
	}
	defer resp.Body.Close()

	return resp.StatusCode, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}
