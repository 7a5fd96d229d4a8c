// Package mail delivers transactional email through the external mail API
// collaborator. Delivery is best-effort from the merge engine's point of
// view: callers log failures and continue.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// Template identifies a transactional email template on the mail API side.
type Template string

const (
	// TemplateWelcome carries the password-set link for a freshly
	// auto-provisioned account.
	TemplateWelcome Template = "provision_welcome"
	// TemplateLinkConfirmation confirms a completed cross-platform merge.
	TemplateLinkConfirmation Template = "merge_link_confirmation"
)

// Message is one transactional email.
type Message struct {
	Template Template       `json:"template"`
	To       string         `json:"to"`
	Data     map[string]any `json:"data,omitempty"`
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds the external mail API settings.
type Config struct {
	APIURL             string
	From               string
	Timeout            time.Duration
	AuthMode           string // "none", "simple", or "hmac"
	AuthSecret         string
	AuthHeader         string
	MaxRetries         int
	RetryDelay         time.Duration
	MaxRetryDelay      time.Duration
	InsecureSkipVerify bool
}

// HTTPSender posts messages to the external mail API with retry support.
type HTTPSender struct {
	apiURL      string
	from        string
	retryClient *retry.Client
}

// NewHTTPSender creates a mail sender backed by the external mail API.
func NewHTTPSender(cfg Config) (*HTTPSender, error) {
	client, err := httpclient.NewAuthClient(
		cfg.AuthMode,
		cfg.AuthSecret,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithHeaderName(cfg.AuthHeader),
		httpclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(client),
		retry.WithMaxRetries(cfg.MaxRetries),
		retry.WithInitialRetryDelay(cfg.RetryDelay),
		retry.WithMaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return &HTTPSender{
		apiURL:      cfg.APIURL,
		from:        cfg.From,
		retryClient: retryClient,
	}, nil
}

type sendRequest struct {
	Template Template       `json:"template"`
	To       string         `json:"to"`
	From     string         `json:"from"`
	Data     map[string]any `json:"data,omitempty"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Send posts the message to the mail API's /send endpoint.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	jsonData, err := json.Marshal(sendRequest{
		Template: msg.Template,
		To:       msg.To,
		From:     s.from,
		Data:     msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	resp, err := s.retryClient.Post(
		ctx,
		s.apiURL+"/send",
		retry.WithBody("application/json", bytes.NewBuffer(jsonData)),
	)
	if err != nil {
		return fmt.Errorf("mail API connection failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read mail API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return fmt.Errorf("mail API returned HTTP %d: %s", resp.StatusCode, preview)
	}

	var apiResp sendResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && !apiResp.Success && apiResp.Message != "" {
		return fmt.Errorf("mail API rejected message: %s", apiResp.Message)
	}

	return nil
}

// NopSender drops messages with a log line. Used when no mail API is
// configured (development, tests).
type NopSender struct{}

func (NopSender) Send(_ context.Context, msg Message) error {
	log.Printf("mail: no mail API configured, dropping %s to %s", msg.Template, msg.To)
	return nil
}
