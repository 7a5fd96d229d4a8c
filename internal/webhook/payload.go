package webhook

import (
	"time"

	"github.com/go-mergegate/mergegate/internal/models"
)

// Event identifies the state change a webhook announces.
type Event string

const (
	EventAccountProvisioned Event = "account_provisioned"
	EventMergeCompleted     Event = "merge_completed"
	EventMergeRejected      Event = "merge_rejected"
)

// ProfileData is the public snapshot of a Hub profile included in
// completion payloads.
type ProfileData struct {
	DisplayName   string `json:"display_name,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	PlatformCount int    `json:"platform_count"`
}

// Payload is the JSON body delivered to a partner's webhook URL. The
// signature covers the exact serialized bytes, so partners verify against
// the raw body before decoding.
type Payload struct {
	Event                Event            `json:"event"`
	RequestID            string           `json:"request_id"`
	Email                string           `json:"email"`
	SourceUserID         string           `json:"source_user_id,omitempty"`
	HubUserID            string           `json:"hub_user_id,omitempty"`
	MergeType            models.MergeType `json:"merge_type"`
	PlatformDataImported bool             `json:"platform_data_imported"`
	Resent               bool             `json:"resent,omitempty"`
	AdminNote            string           `json:"admin_note,omitempty"`
	Timestamp            time.Time        `json:"timestamp"`
	ProfileData          *ProfileData     `json:"profile_data,omitempty"`
}
