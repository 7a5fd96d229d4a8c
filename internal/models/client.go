package models

import (
	"time"
)

type OAuthClient struct {
	ClientID         string `gorm:"primaryKey"`
	ClientSecretHash string `gorm:"not null"` // bcrypt hashed secret
	WebhookSecret    string `gorm:"not null"` // random key used to sign outbound webhooks
	PlatformName     string `gorm:"uniqueIndex;not null"`
	Description      string `gorm:"type:text"`
	Scopes           string `gorm:"not null"` // space-separated scopes
	WebhookURL       string `gorm:"type:text"`
	IsActive         bool   `gorm:"not null;default:true"`
	CreatedBy        string // User ID of the operator who registered this client
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the table name used by OAuthClient to `oauth_client`
func (OAuthClient) TableName() string {
	return "oauth_client"
}

// HasWebhook reports whether the partner configured a delivery URL.
func (c *OAuthClient) HasWebhook() bool {
	return c.WebhookURL != ""
}
