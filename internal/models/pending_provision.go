package models

import (
	"time"
)

// PendingProvisionStatus is the terminal sub-state machine of the
// self-service password flow for an auto-provisioned account.
type PendingProvisionStatus string

const (
	PendingProvisionPending   PendingProvisionStatus = "pending"
	PendingProvisionCompleted PendingProvisionStatus = "completed"
	PendingProvisionExpired   PendingProvisionStatus = "expired"
)

type PendingProvision struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`

	Email          string `gorm:"index;not null"`
	HubUserID      string `gorm:"index;not null"`
	PlatformID     string `gorm:"not null"` // partner client_id
	PlatformUserID string
	PlatformData   PlatformData `gorm:"type:json"` // snapshot at provisioning time

	PasswordTokenHash string    `gorm:"uniqueIndex;not null"` // SHA-256 hex of raw token
	TokenExpiresAt    time.Time `gorm:"index;not null"`

	Status         PendingProvisionStatus `gorm:"type:varchar(20);index;not null"`
	MergeRequestID string                 `gorm:"index;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (PendingProvision) TableName() string {
	return "pending_provisions"
}

func (p *PendingProvision) IsExpired() bool {
	return time.Now().After(p.TokenExpiresAt)
}
