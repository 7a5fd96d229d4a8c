package handlers

import (
	"errors"
	"net/http"

	"github.com/go-mergegate/mergegate/internal/services"

	"github.com/gin-gonic/gin"
)

// ProvisionHandler completes the self-service password flow for
// auto-provisioned accounts.
type ProvisionHandler struct {
	provisions *services.ProvisionService
}

func NewProvisionHandler(ps *services.ProvisionService) *ProvisionHandler {
	return &ProvisionHandler{provisions: ps}
}

type setPasswordRequest struct {
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetPassword handles POST /api/v1/provision/password. The token is the
// opaque value from the welcome email; it is single-use and expires after
// its TTL. Expired and invalid tokens get distinct error codes, but an
// already-used token deliberately answers invalid_token.
func (h *ProvisionHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"token and password are required",
		))
		return
	}

	user, err := h.provisions.SetPassword(c, req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, errorBody(
				"weak_password",
				"Password must be at least 8 characters",
			))
		case errors.Is(err, services.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, errorBody(
				"expired_token",
				"The password link has expired; ask for a new invitation",
			))
		case errors.Is(err, services.ErrTokenInvalid):
			c.JSON(http.StatusBadRequest, errorBody(
				"invalid_token",
				"The password link is invalid",
			))
		default:
			c.JSON(http.StatusInternalServerError, errorBody(
				"internal_error",
				"Failed to set password",
			))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"email":   user.Email,
	})
}
