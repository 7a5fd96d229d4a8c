package handlers

import (
	"errors"
	"net/http"

	"github.com/go-mergegate/mergegate/internal/services"
	"github.com/go-mergegate/mergegate/internal/util"

	"github.com/gin-gonic/gin"
)

// ClientHandler manages the partner client registry from the admin
// surface.
type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(cs *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: cs}
}

type createClientRequest struct {
	PlatformName string `json:"platform_name" binding:"required"`
	Description  string `json:"description"`
	Scopes       string `json:"scopes"`
	WebhookURL   string `json:"webhook_url"`
}

// Create handles POST /admin/clients. The response is the only place the
// plaintext client secret and webhook signing secret ever appear.
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"platform_name is required",
		))
		return
	}

	admin := util.GetUserFromContext(c)
	createdBy := ""
	if admin != nil {
		createdBy = admin.ID
	}

	resp, err := h.clients.CreateClient(c, services.CreateClientRequest{
		PlatformName: req.PlatformName,
		Description:  req.Description,
		Scopes:       req.Scopes,
		WebhookURL:   req.WebhookURL,
		CreatedBy:    createdBy,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to create client",
		))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"client_id":      resp.ClientID,
		"client_secret":  resp.ClientSecretPlain,
		"webhook_secret": resp.WebhookSecret,
		"platform_name":  resp.PlatformName,
		"scopes":         resp.Scopes,
		"webhook_url":    resp.WebhookURL,
	})
}

// List handles GET /admin/clients. Secret hashes are persisted columns
// but never serialized back out.
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.ListClients()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to list clients",
		))
		return
	}

	views := make([]gin.H, 0, len(clients))
	for i := range clients {
		views = append(views, gin.H{
			"client_id":     clients[i].ClientID,
			"platform_name": clients[i].PlatformName,
			"description":   clients[i].Description,
			"scopes":        clients[i].Scopes,
			"webhook_url":   clients[i].WebhookURL,
			"is_active":     clients[i].IsActive,
			"created_at":    clients[i].CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"clients": views})
}

type updateClientRequest struct {
	Description string `json:"description"`
	Scopes      string `json:"scopes"`
	WebhookURL  string `json:"webhook_url"`
	IsActive    bool   `json:"is_active"`
}

// Update handles PUT /admin/clients/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"Invalid request body",
		))
		return
	}

	err := h.clients.UpdateClient(c, c.Param("id"), services.UpdateClientRequest{
		Description: req.Description,
		Scopes:      req.Scopes,
		WebhookURL:  req.WebhookURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, errorBody("not_found", "Client not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to update client",
		))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegenerateSecret handles POST /admin/clients/:id/regenerate-secret.
// The old secret stops working immediately.
func (h *ClientHandler) RegenerateSecret(c *gin.Context) {
	admin := util.GetUserFromContext(c)
	actorID := ""
	if admin != nil {
		actorID = admin.ID
	}

	newSecret, err := h.clients.RegenerateSecret(c, c.Param("id"), actorID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, errorBody("not_found", "Client not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to regenerate secret",
		))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":     c.Param("id"),
		"client_secret": newSecret,
	})
}
