package models

import (
	"time"
)

// PlatformSnapshot stores the latest partner-supplied payload for a
// (Hub user, partner client) pair. Upserted during auto-provisioning and
// on merge approval; shallow merge keyed by client id.
type PlatformSnapshot struct {
	ID       string       `gorm:"primaryKey;type:varchar(36)"`
	UserID   string       `gorm:"uniqueIndex:idx_snapshot_user_client;not null"`
	ClientID string       `gorm:"uniqueIndex:idx_snapshot_user_client;not null"`
	Data     PlatformData `gorm:"type:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (PlatformSnapshot) TableName() string {
	return "platform_snapshots"
}
