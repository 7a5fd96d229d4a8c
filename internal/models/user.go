package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlatformLink records one connected partner platform on a Hub profile.
type PlatformLink struct {
	SourceUserID   string    `json:"source_user_id,omitempty"`
	SourceUsername string    `json:"source_username,omitempty"`
	MergeType      MergeType `json:"merge_type"`
	LinkedAt       time.Time `json:"linked_at"`
}

// PlatformLedger maps partner client_id to its link entry.
type PlatformLedger map[string]PlatformLink

// Value implements the driver.Valuer interface for database storage
func (l PlatformLedger) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *PlatformLedger) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal PlatformLedger value: %v", value)
	}

	result := make(PlatformLedger)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*l = result
	return nil
}

// User is a Hub account. Credential records are owned by the account store;
// the merge engine only creates accounts and patches profile fields.
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string // auto-provisioned users have empty password until set
	Role         string `gorm:"not null;default:'user'"` // "admin" or "user"

	DisplayName    string
	AvatarURL      string
	EmailConfirmed bool `gorm:"not null;default:false"`

	// Profile fields seeded from partner platform data
	TermsAccepted      bool   `gorm:"not null;default:false"`
	RegistrationOrigin string // partner client_id for auto-provisioned accounts

	// Cross-platform connection ledger
	ConnectedPlatforms PlatformLedger `gorm:"type:json"`
	PlatformCount      int            `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
