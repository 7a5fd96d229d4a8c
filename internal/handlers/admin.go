package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/services"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the admin decision gateway: login, the review
// queue, decisions, resends, and the audit log view.
type AdminHandler struct {
	auth       *services.AuthService
	merges     *services.MergeService
	audit      *services.AuditService
	jwtExpires time.Duration
}

func NewAdminHandler(
	as *services.AuthService,
	ms *services.MergeService,
	audit *services.AuditService,
	jwtExpires time.Duration,
) *AdminHandler {
	return &AdminHandler{
		auth:       as,
		merges:     ms,
		audit:      audit,
		jwtExpires: jwtExpires,
	}
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /admin/login and returns a bearer token for the
// admin surface.
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"email and password are required",
		))
		return
	}

	tokenString, _, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorBody(
				"invalid_credentials",
				"Invalid email or password",
			))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to log in",
		))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": tokenString,
		"token_type":   "Bearer",
		"expires_in":   int(h.jwtExpires.Seconds()),
	})
}

type decisionRequest struct {
	Action string `json:"action" binding:"required"` // "approve" or "reject"
	Note   string `json:"note"`
}

// Decide handles POST /admin/merge-requests/:id/decision. Of two racing
// decisions exactly one wins; the loser gets 409.
func (h *AdminHandler) Decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"action is required",
		))
		return
	}
	if req.Action != "approve" && req.Action != "reject" {
		c.JSON(http.StatusBadRequest, errorBody(
			"invalid_request",
			"action must be 'approve' or 'reject'",
		))
		return
	}

	admin := util.GetUserFromContext(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "Authentication required"))
		return
	}

	updated, err := h.merges.Decide(c, c.Param("id"), admin, services.DecideInput{
		Approve:   req.Action == "approve",
		AdminNote: req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, errorBody(
				"not_found",
				"Merge request not found",
			))
		case errors.Is(err, services.ErrAlreadyDecided):
			c.JSON(http.StatusConflict, errorBody(
				"already_decided",
				"This merge request has already been decided",
			))
		case errors.Is(err, services.ErrInvalidState):
			c.JSON(http.StatusConflict, errorBody(
				"invalid_state",
				"The Hub account for this request no longer exists",
			))
		default:
			c.JSON(http.StatusInternalServerError, errorBody(
				"internal_error",
				"Failed to apply decision",
			))
		}
		return
	}

	c.JSON(http.StatusOK, newMergeRequestView(updated))
}

// Resend handles POST /admin/merge-requests/:id/resend. Webhook and email
// outcomes are reported independently; a partial failure is a 200 with
// the flags telling the story.
func (h *AdminHandler) Resend(c *gin.Context) {
	admin := util.GetUserFromContext(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "Authentication required"))
		return
	}

	req, result, err := h.merges.Resend(c, c.Param("id"), admin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, errorBody(
				"not_found",
				"Merge request not found",
			))
		case errors.Is(err, services.ErrInvalidState):
			c.JSON(http.StatusConflict, errorBody(
				"invalid_state",
				"Only decided merge requests can be resent",
			))
		default:
			c.JSON(http.StatusInternalServerError, errorBody(
				"internal_error",
				"Failed to resend notifications",
			))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"webhook_delivered": result.WebhookDelivered,
		"email_sent":        result.EmailSent,
		"request":           newMergeRequestView(req),
	})
}

// List handles GET /admin/merge-requests: the paginated review queue,
// filterable by status, source platform, and merge type; search matches
// the email column.
func (h *AdminHandler) List(c *gin.Context) {
	params := paginationFromQuery(c)
	filters := store.MergeRequestFilters{
		Status:         models.MergeStatus(c.Query("status")),
		SourcePlatform: c.Query("platform"),
		MergeType:      models.MergeType(c.Query("merge_type")),
	}

	requests, pagination, err := h.merges.List(params, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to list merge requests",
		))
		return
	}

	views := make([]mergeRequestView, 0, len(requests))
	for i := range requests {
		views = append(views, newMergeRequestView(&requests[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":   views,
		"pagination": pagination,
	})
}

// Audit handles GET /admin/audit: the paginated audit trail. Reading the
// trail is itself an audited action.
func (h *AdminHandler) Audit(c *gin.Context) {
	admin := util.GetUserFromContext(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "Authentication required"))
		return
	}

	params := paginationFromQuery(c)
	filters := store.AuditLogFilters{
		EventType:    models.EventType(c.Query("event_type")),
		ActorUserID:  c.Query("actor"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		Severity:     models.EventSeverity(c.Query("severity")),
	}
	if t, err := time.Parse(time.RFC3339, c.Query("start_time")); err == nil {
		filters.StartTime = t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("end_time")); err == nil {
		filters.EndTime = t
	}

	logs, pagination, err := h.audit.GetAuditLogs(params, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(
			"internal_error",
			"Failed to list audit logs",
		))
		return
	}

	h.audit.Log(c, services.AuditLogEntry{
		EventType:   models.EventTypeAuditLogView,
		Severity:    models.SeverityInfo,
		ActorUserID: admin.ID,
		Action:      "view_audit_logs",
		Success:     true,
	})

	c.JSON(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}

func paginationFromQuery(c *gin.Context) store.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return store.NewPaginationParams(page, pageSize, c.Query("search"))
}
