package handlers

import (
	"errors"
	"net/http"

	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/services"

	"github.com/gin-gonic/gin"
)

// IntakeHandler receives merge request submissions from partner platforms.
type IntakeHandler struct {
	clients *services.ClientService
	merges  *services.MergeService
}

func NewIntakeHandler(cs *services.ClientService, ms *services.MergeService) *IntakeHandler {
	return &IntakeHandler{
		clients: cs,
		merges:  ms,
	}
}

type submitRequest struct {
	ClientID     string              `json:"client_id"     binding:"required"`
	ClientSecret string              `json:"client_secret" binding:"required"`
	Email        string              `json:"email"         binding:"required"`
	SourceUserID string              `json:"source_user_id"`
	SourceUser   string              `json:"source_username"`
	DisplayName  string              `json:"display_name"`
	AvatarURL    string              `json:"avatar_url"`
	PlatformData models.PlatformData `json:"platform_data"`
}

// Submit handles POST /api/v1/merge-requests. Partner credentials travel
// in the body; the response carries the request id and its landing state
// (pending for review, provisioned for fresh accounts). A duplicate
// active submission answers 409 with the existing request.
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"client_id, client_secret and email are required",
		))
		return
	}

	client, err := h.clients.Authenticate(c, req.ClientID, req.ClientSecret)
	if err != nil {
		if errors.Is(err, services.ErrInvalidClient) {
			c.JSON(http.StatusUnauthorized, errorBody(
				"invalid_client",
				"Client authentication failed",
			))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to authenticate client",
		))
		return
	}

	created, err := h.merges.Submit(c, client, services.SubmitInput{
		Email:          req.Email,
		SourceUserID:   req.SourceUserID,
		SourceUsername: req.SourceUser,
		DisplayName:    req.DisplayName,
		AvatarURL:      req.AvatarURL,
		PlatformData:   req.PlatformData,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, errorBody(
				"invalid_email",
				"A valid bare email address is required",
			))
		case errors.Is(err, services.ErrPlatformDataInvalid):
			c.JSON(http.StatusBadRequest, errorBody(
				"invalid_platform_data",
				"platform_data exceeds the size or nesting limits",
			))
		case errors.Is(err, services.ErrDuplicateRequest):
			// The existing active request is returned so the partner can
			// track it instead of retrying.
			c.JSON(http.StatusConflict, gin.H{
				"error":             "duplicate_request",
				"error_description": "An active merge request already exists for this identity",
				"existing_request": gin.H{
					"id":     created.ID,
					"status": created.Status,
				},
			})
		case errors.Is(err, services.ErrAccountCreation):
			c.JSON(http.StatusInternalServerError, errorBody(
				"account_creation_failed",
				"Failed to auto-provision the account",
			))
		default:
			c.JSON(http.StatusInternalServerError, errorBody(
				"internal_error",
				"Failed to process merge request",
			))
		}
		return
	}

	c.JSON(http.StatusCreated, newMergeRequestView(created))
}
