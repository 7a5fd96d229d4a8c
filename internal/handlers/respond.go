package handlers

import (
	"time"

	"github.com/go-mergegate/mergegate/internal/models"

	"github.com/gin-gonic/gin"
)

// errorBody builds the {error, error_description} shape used across the
// JSON API.
func errorBody(code, description string) gin.H {
	return gin.H{
		"error":             code,
		"error_description": description,
	}
}

// mergeRequestView is the external representation of a merge request.
// Platform data stays internal; partners already hold their own copy and
// admins read it through the review queue.
type mergeRequestView struct {
	ID              string             `json:"id"`
	Email           string             `json:"email"`
	SourcePlatform  string             `json:"source_platform"`
	SourceUserID    string             `json:"source_user_id,omitempty"`
	SourceUsername  string             `json:"source_username,omitempty"`
	TargetPlatform  string             `json:"target_platform"`
	TargetUserID    string             `json:"target_user_id,omitempty"`
	MergeType       models.MergeType   `json:"merge_type"`
	Status          models.MergeStatus `json:"status"`
	AutoProvisioned bool               `json:"auto_provisioned"`
	ProvisionStatus string             `json:"provision_status,omitempty"`
	ReviewedBy      string             `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
	AdminNote       string             `json:"admin_note,omitempty"`
	WebhookSent     bool               `json:"webhook_sent"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newMergeRequestView(req *models.MergeRequest) mergeRequestView {
	return mergeRequestView{
		ID:              req.ID,
		Email:           req.Email,
		SourcePlatform:  req.SourcePlatform,
		SourceUserID:    req.SourceUserID,
		SourceUsername:  req.SourceUsername,
		TargetPlatform:  req.TargetPlatform,
		TargetUserID:    req.TargetUserID,
		MergeType:       req.MergeType,
		Status:          req.Status,
		AutoProvisioned: req.AutoProvisioned,
		ProvisionStatus: string(req.ProvisionStatus),
		ReviewedBy:      req.ReviewedBy,
		ReviewedAt:      req.ReviewedAt,
		AdminNote:       req.AdminNote,
		WebhookSent:     req.WebhookSent,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}
