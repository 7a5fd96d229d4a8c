package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MergeStatus represents the lifecycle state of a merge request
type MergeStatus string

const (
	MergeStatusPending     MergeStatus = "pending"
	MergeStatusApproved    MergeStatus = "approved"
	MergeStatusRejected    MergeStatus = "rejected"
	MergeStatusCompleted   MergeStatus = "completed"
	MergeStatusProvisioned MergeStatus = "provisioned"
)

// MergeType classifies how the partner identity relates to the Hub
type MergeType string

const (
	// MergeTypeBothExist means a Hub account for the email already exists
	MergeTypeBothExist MergeType = "both_exist"
	// MergeTypeSourceOnly means only the partner platform knows this user
	MergeTypeSourceOnly MergeType = "source_only"
)

// ProvisionStatus tracks the self-service password flow of an
// auto-provisioned account. Only meaningful when AutoProvisioned is true.
type ProvisionStatus string

const (
	ProvisionStatusPendingPasswordSet ProvisionStatus = "pending_password_set"
	ProvisionStatusPasswordSet        ProvisionStatus = "password_set"
)

// ActiveStatuses are the states counted by the one-active-request-per
// (email, source platform) invariant.
var ActiveStatuses = []MergeStatus{
	MergeStatusPending,
	MergeStatusApproved,
	MergeStatusProvisioned,
}

// PlatformData is the opaque partner-supplied payload. Validated for size
// and depth at the intake boundary, treated as a black box afterwards.
type PlatformData map[string]any

// Value implements the driver.Valuer interface for database storage
func (p PlatformData) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL
	}
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for database retrieval
func (p *PlatformData) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal PlatformData value: %v", value)
	}

	result := make(PlatformData)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*p = result
	return nil
}

// MergeRequest is the audit/state record tracking one attempt to reconcile
// a partner platform identity with a Hub identity. Rows are never deleted.
type MergeRequest struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`

	Email          string `gorm:"index;not null"` // normalized lower-case
	SourcePlatform string `gorm:"index;not null"` // partner client_id
	SourceUserID   string
	SourceUsername string

	TargetPlatform string `gorm:"not null;default:'hub'"`
	TargetUserID   string `gorm:"index"` // empty until resolved or created

	PlatformData PlatformData `gorm:"type:json"`

	MergeType MergeType   `gorm:"type:varchar(20);not null"`
	Status    MergeStatus `gorm:"type:varchar(20);index;not null"`

	AutoProvisioned bool            `gorm:"not null;default:false"`
	ProvisionStatus ProvisionStatus `gorm:"type:varchar(30)"`

	ReviewedBy string
	ReviewedAt *time.Time
	AdminNote  string `gorm:"type:text"`

	WebhookSent   bool `gorm:"not null;default:false"`
	WebhookSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (MergeRequest) TableName() string {
	return "merge_requests"
}

// IsActive reports whether this request blocks a new submission for the
// same (email, source platform) pair.
func (m *MergeRequest) IsActive() bool {
	switch m.Status {
	case MergeStatusPending, MergeStatusApproved, MergeStatusProvisioned:
		return true
	default:
		return false
	}
}

// IsDecided reports whether an admin decision (or auto-provisioning) has
// already moved the request past the pending state.
func (m *MergeRequest) IsDecided() bool {
	return m.Status != MergeStatusPending
}
