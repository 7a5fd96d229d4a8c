package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	return Payload{
		Event:     EventMergeCompleted,
		RequestID: "req-1",
		Email:     "user@example.com",
		MergeType: models.MergeTypeBothExist,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSendSignsBody(t *testing.T) {
	const secret = "partner-secret"

	var gotBody []byte
	var gotSig, gotEvent, gotSender string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(HeaderSignature)
		gotEvent = r.Header.Get(HeaderEvent)
		gotSender = r.Header.Get(HeaderSender)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher()
	result := d.Send(context.Background(), srv.URL, secret, testPayload())

	require.True(t, result.Delivered)
	assert.Equal(t, http.StatusOK, result.HTTPStatus)

	// Partner-side verification: recompute HMAC over the exact raw body
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)
	assert.Equal(t, string(EventMergeCompleted), gotEvent)
	assert.Equal(t, "mergegate", gotSender)

	var decoded Payload
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "req-1", decoded.RequestID)
}

func TestSendNoURLIsNoopSuccess(t *testing.T) {
	d := NewDispatcher()
	result := d.Send(context.Background(), "", "secret", testPayload())
	assert.True(t, result.Delivered)
	assert.Zero(t, result.HTTPStatus)
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(
		WithMaxRetries(2),
		WithInitialRetryDelay(time.Millisecond),
		WithMaxRetryDelay(2*time.Millisecond),
	)
	result := d.Send(context.Background(), srv.URL, "secret", testPayload())

	assert.True(t, result.Delivered)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDispatcher(WithMaxRetries(3), WithInitialRetryDelay(time.Millisecond))
	result := d.Send(context.Background(), srv.URL, "secret", testPayload())

	assert.False(t, result.Delivered)
	assert.Equal(t, http.StatusBadRequest, result.HTTPStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendUnreachableHostFailsSoft(t *testing.T) {
	d := NewDispatcher(
		WithMaxRetries(1),
		WithInitialRetryDelay(time.Millisecond),
		WithTimeout(100*time.Millisecond),
	)
	result := d.Send(context.Background(), "http://127.0.0.1:1", "secret", testPayload())
	assert.False(t, result.Delivered)
}
