package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	mailer "github.com/go-mergegate/mergegate/internal/mail"
	"github.com/go-mergegate/mergegate/internal/metrics"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/token"
	"github.com/go-mergegate/mergegate/internal/webhook"

	"github.com/google/uuid"
)

// MergeConfig carries the intake and provisioning knobs the merge service
// needs from the environment.
type MergeConfig struct {
	BaseURL              string
	ProvisionTokenLength int
	ProvisionTokenTTL    time.Duration
	PlatformDataMaxBytes int
	PlatformDataMaxDepth int
}

// MergeService owns the merge request state machine: intake from partner
// platforms, auto-provisioning, admin decisions, and notification resends.
// State transitions are authoritative; webhook and email delivery are
// best-effort and never roll a transition back.
type MergeService struct {
	store    *store.Store
	resolver *IdentityResolver
	webhooks *webhook.Dispatcher
	mail     mailer.Sender
	audit    *AuditService
	metrics  metrics.Recorder
	cfg      MergeConfig
}

func NewMergeService(
	s *store.Store,
	resolver *IdentityResolver,
	webhooks *webhook.Dispatcher,
	mailSender mailer.Sender,
	audit *AuditService,
	recorder metrics.Recorder,
	cfg MergeConfig,
) *MergeService {
	if cfg.ProvisionTokenLength <= 0 {
		cfg.ProvisionTokenLength = token.DefaultLength
	}
	if cfg.ProvisionTokenTTL <= 0 {
		cfg.ProvisionTokenTTL = 24 * time.Hour
	}
	return &MergeService{
		store:    s,
		resolver: resolver,
		webhooks: webhooks,
		mail:     mailSender,
		audit:    audit,
		metrics:  recorder,
		cfg:      cfg,
	}
}

// SubmitInput is one merge request submission from an authenticated
// partner client.
type SubmitInput struct {
	Email          string
	SourceUserID   string
	SourceUsername string
	DisplayName    string
	AvatarURL      string
	PlatformData   models.PlatformData
}

// Submit runs the intake flow for an authenticated partner client. When a
// Hub account already exists for the email, a pending request is queued
// for admin review. When none exists, an account is auto-provisioned and
// the request lands directly in the provisioned state.
//
// On ErrDuplicateRequest the returned request is the existing active one,
// so callers can surface its id and status.
func (s *MergeService) Submit(
	ctx context.Context,
	client *models.OAuthClient,
	in SubmitInput,
) (*models.MergeRequest, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		s.metrics.RecordMergeSubmission("unknown", "invalid_email")
		return nil, ErrInvalidEmail
	}

	if err := s.validatePlatformData(in.PlatformData); err != nil {
		s.metrics.RecordMergeSubmission("unknown", "invalid_platform_data")
		return nil, err
	}

	// Early duplicate check, outside the insert transaction. The insert
	// re-checks under the transaction, so a race here is still caught.
	if existing, err := s.store.FindActiveMergeRequest(email, client.ClientID); err == nil {
		s.metrics.RecordMergeSubmission("unknown", "duplicate")
		return existing, ErrDuplicateRequest
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	hubUser, err := s.resolver.Resolve(email)
	if err != nil {
		return nil, err
	}

	if hubUser != nil {
		return s.submitPending(ctx, client, in, email, hubUser)
	}
	return s.submitProvisioned(ctx, client, in, email)
}

// submitPending queues a request for admin review when both identities
// already exist.
func (s *MergeService) submitPending(
	ctx context.Context,
	client *models.OAuthClient,
	in SubmitInput,
	email string,
	hubUser *models.User,
) (*models.MergeRequest, error) {
	req := &models.MergeRequest{
		ID:             uuid.New().String(),
		Email:          email,
		SourcePlatform: client.ClientID,
		SourceUserID:   in.SourceUserID,
		SourceUsername: in.SourceUsername,
		TargetPlatform: "hub",
		TargetUserID:   hubUser.ID,
		PlatformData:   in.PlatformData,
		MergeType:      models.MergeTypeBothExist,
		Status:         models.MergeStatusPending,
	}

	created, err := s.store.CreateMergeRequest(req)
	if errors.Is(err, store.ErrDuplicateActiveRequest) {
		s.metrics.RecordMergeSubmission(string(models.MergeTypeBothExist), "duplicate")
		return created, ErrDuplicateRequest
	}
	if err != nil {
		return nil, err
	}

	s.auditSubmission(ctx, req, client)
	s.metrics.RecordMergeSubmission(string(models.MergeTypeBothExist), "pending")
	return created, nil
}

// submitProvisioned runs the auto-provisioning sub-flow: create the Hub
// account, record the request as provisioned, and invite the user to set a
// password. If the duplicate guard fires after the account was created
// (two submissions racing), the fresh account is rolled back.
func (s *MergeService) submitProvisioned(
	ctx context.Context,
	client *models.OAuthClient,
	in SubmitInput,
	email string,
) (*models.MergeRequest, error) {
	now := time.Now()

	newUser := &models.User{
		ID:                 uuid.New().String(),
		Email:              email,
		Role:               "user",
		DisplayName:        in.DisplayName,
		AvatarURL:          in.AvatarURL,
		RegistrationOrigin: client.ClientID,
		ConnectedPlatforms: models.PlatformLedger{
			client.ClientID: {
				SourceUserID:   in.SourceUserID,
				SourceUsername: in.SourceUsername,
				MergeType:      models.MergeTypeSourceOnly,
				LinkedAt:       now,
			},
		},
		PlatformCount: 1,
	}

	if err := s.store.CreateUser(newUser); err != nil {
		if errors.Is(err, store.ErrEmailConflict) {
			// Lost the race against a parallel registration. The account
			// exists now, so fall back to the review path.
			hubUser, rerr := s.resolver.Resolve(email)
			if rerr != nil || hubUser == nil {
				return nil, ErrAccountCreation
			}
			return s.submitPending(ctx, client, in, email, hubUser)
		}
		return nil, fmt.Errorf("%w: %v", ErrAccountCreation, err)
	}

	req := &models.MergeRequest{
		ID:              uuid.New().String(),
		Email:           email,
		SourcePlatform:  client.ClientID,
		SourceUserID:    in.SourceUserID,
		SourceUsername:  in.SourceUsername,
		TargetPlatform:  "hub",
		TargetUserID:    newUser.ID,
		PlatformData:    in.PlatformData,
		MergeType:       models.MergeTypeSourceOnly,
		Status:          models.MergeStatusProvisioned,
		AutoProvisioned: true,
		ProvisionStatus: models.ProvisionStatusPendingPasswordSet,
	}

	created, err := s.store.CreateMergeRequest(req)
	if errors.Is(err, store.ErrDuplicateActiveRequest) {
		// A concurrent submission for the same pair won. Roll back the
		// account we just created; the winner owns the flow.
		if derr := s.store.DeleteUser(newUser.ID); derr != nil {
			log.Printf("Failed to roll back provisioned account %s: %v", newUser.ID, derr)
		}
		s.metrics.RecordMergeSubmission(string(models.MergeTypeSourceOnly), "duplicate")
		return created, ErrDuplicateRequest
	}
	if err != nil {
		if derr := s.store.DeleteUser(newUser.ID); derr != nil {
			log.Printf("Failed to roll back provisioned account %s: %v", newUser.ID, derr)
		}
		return nil, err
	}

	rawToken, err := s.createPasswordInvite(req, newUser, client, in)
	if err != nil {
		// The account and request stand; the user can be re-invited via
		// resend. Log and continue.
		log.Printf("Failed to create password invite for request %s: %v", req.ID, err)
	}

	if err := s.store.UpsertPlatformSnapshot(newUser.ID, client.ClientID, in.PlatformData); err != nil {
		log.Printf("Failed to store platform snapshot for user %s: %v", newUser.ID, err)
	}

	s.auditSubmission(ctx, req, client)
	if s.audit != nil {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventAccountProvisioned,
			Severity:     models.SeverityInfo,
			ResourceType: models.ResourceUser,
			ResourceID:   newUser.ID,
			Action:       "auto_provision_account",
			Details: models.AuditDetails{
				"merge_request_id": req.ID,
				"source_platform":  client.ClientID,
			},
			Success: true,
		})
	}

	if rawToken != "" {
		s.sendWelcomeEmail(ctx, req, rawToken)
	}
	s.deliverWebhook(ctx, client, req, webhook.EventAccountProvisioned, webhookOptions{
		hubUser: newUser,
	})

	s.metrics.RecordMergeSubmission(string(models.MergeTypeSourceOnly), "provisioned")
	return created, nil
}

// createPasswordInvite generates the opaque password-set token and stores
// its hash. The raw token is returned for the welcome email and never
// persisted.
func (s *MergeService) createPasswordInvite(
	req *models.MergeRequest,
	user *models.User,
	client *models.OAuthClient,
	in SubmitInput,
) (string, error) {
	rawToken, err := token.Generate(s.cfg.ProvisionTokenLength)
	if err != nil {
		return "", err
	}

	provision := &models.PendingProvision{
		ID:                uuid.New().String(),
		Email:             user.Email,
		HubUserID:         user.ID,
		PlatformID:        client.ClientID,
		PlatformUserID:    in.SourceUserID,
		PlatformData:      in.PlatformData,
		PasswordTokenHash: token.Hash(rawToken),
		TokenExpiresAt:    time.Now().Add(s.cfg.ProvisionTokenTTL),
		Status:            models.PendingProvisionPending,
		MergeRequestID:    req.ID,
	}
	if err := s.store.CreatePendingProvision(provision); err != nil {
		return "", err
	}
	return rawToken, nil
}

// DecideInput carries an admin decision.
type DecideInput struct {
	Approve   bool
	AdminNote string
}

// Decide applies an admin decision to a pending request. The status
// compare-and-swap runs first, so exactly one of two concurrent decisions
// wins; the loser gets ErrAlreadyDecided. Side effects (profile ledger,
// snapshot import, notifications) happen after the transition and never
// undo it.
func (s *MergeService) Decide(
	ctx context.Context,
	id string,
	admin *models.User,
	in DecideInput,
) (*models.MergeRequest, error) {
	req, err := s.store.GetMergeRequest(id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.IsDecided() {
		s.recordDecisionMetric(in.Approve, "already_decided")
		return nil, ErrAlreadyDecided
	}

	if in.Approve {
		return s.approve(ctx, req, admin, in.AdminNote)
	}
	return s.reject(ctx, req, admin, in.AdminNote)
}

func (s *MergeService) approve(
	ctx context.Context,
	req *models.MergeRequest,
	admin *models.User,
	note string,
) (*models.MergeRequest, error) {
	// Re-resolve in case the account moved since submission.
	hubUser, err := s.resolver.Resolve(req.Email)
	if err != nil {
		return nil, err
	}
	if hubUser == nil {
		// The Hub account vanished between submission and review. The
		// request cannot be completed as-is; the admin should reject it
		// and let the partner resubmit.
		return nil, ErrInvalidState
	}

	err = s.store.DecideMergeRequest(req.ID, store.DecisionUpdate{
		Status:       models.MergeStatusCompleted,
		ReviewedBy:   admin.ID,
		AdminNote:    note,
		TargetUserID: hubUser.ID,
	})
	if errors.Is(err, store.ErrAlreadyDecided) {
		s.recordDecisionMetric(true, "already_decided")
		return nil, ErrAlreadyDecided
	}
	if err != nil {
		return nil, err
	}

	// Transition committed. Everything below is best-effort.
	if err := s.store.UpdateProfileLedger(hubUser.ID, req.SourcePlatform, models.PlatformLink{
		SourceUserID:   req.SourceUserID,
		SourceUsername: req.SourceUsername,
		MergeType:      models.MergeTypeBothExist,
		LinkedAt:       time.Now(),
	}); err != nil {
		log.Printf("Failed to update profile ledger for user %s: %v", hubUser.ID, err)
	}
	if len(req.PlatformData) > 0 {
		if err := s.store.UpsertPlatformSnapshot(hubUser.ID, req.SourcePlatform, req.PlatformData); err != nil {
			log.Printf("Failed to import platform snapshot for user %s: %v", hubUser.ID, err)
		}
	}

	s.auditDecision(ctx, req, admin, models.EventMergeApproved, "approve_merge_request", note)

	s.sendLinkConfirmationEmail(ctx, req)
	if client, cerr := s.store.GetClient(req.SourcePlatform); cerr == nil {
		// Refresh for the post-merge platform count.
		if refreshed, rerr := s.store.GetUserByID(hubUser.ID); rerr == nil {
			hubUser = refreshed
		}
		s.deliverWebhook(ctx, client, req, webhook.EventMergeCompleted, webhookOptions{
			hubUser:   hubUser,
			adminNote: note,
		})
	}

	s.recordDecisionMetric(true, "completed")
	return s.reload(req.ID), nil
}

func (s *MergeService) reject(
	ctx context.Context,
	req *models.MergeRequest,
	admin *models.User,
	note string,
) (*models.MergeRequest, error) {
	err := s.store.DecideMergeRequest(req.ID, store.DecisionUpdate{
		Status:     models.MergeStatusRejected,
		ReviewedBy: admin.ID,
		AdminNote:  note,
	})
	if errors.Is(err, store.ErrAlreadyDecided) {
		s.recordDecisionMetric(false, "already_decided")
		return nil, ErrAlreadyDecided
	}
	if err != nil {
		return nil, err
	}

	s.auditDecision(ctx, req, admin, models.EventMergeRejected, "reject_merge_request", note)

	if client, cerr := s.store.GetClient(req.SourcePlatform); cerr == nil {
		s.deliverWebhook(ctx, client, req, webhook.EventMergeRejected, webhookOptions{
			adminNote: note,
		})
	}

	s.recordDecisionMetric(false, "rejected")
	return s.reload(req.ID), nil
}

// ResendResult reports the independent outcomes of a notification resend.
type ResendResult struct {
	WebhookDelivered bool
	EmailSent        bool
}

// Resend re-delivers the notifications for a completed or provisioned
// request. Webhook and email outcomes are independent; a failure of one
// does not block the other, and resending never changes request state
// beyond the webhook delivery marker.
func (s *MergeService) Resend(
	ctx context.Context,
	id string,
	admin *models.User,
) (*models.MergeRequest, ResendResult, error) {
	req, err := s.store.GetMergeRequest(id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ResendResult{}, ErrNotFound
		}
		return nil, ResendResult{}, err
	}
	if !req.IsDecided() {
		return nil, ResendResult{}, ErrInvalidState
	}

	var event webhook.Event
	switch req.Status {
	case models.MergeStatusCompleted:
		event = webhook.EventMergeCompleted
	case models.MergeStatusProvisioned:
		event = webhook.EventAccountProvisioned
	default:
		// Rejections have nothing to re-deliver: the partner got the
		// rejection event at decision time and no user email exists.
		return nil, ResendResult{}, ErrInvalidState
	}

	var result ResendResult

	var hubUser *models.User
	if req.TargetUserID != "" {
		hubUser, _ = s.store.GetUserByID(req.TargetUserID)
	}

	if client, cerr := s.store.GetClient(req.SourcePlatform); cerr == nil {
		result.WebhookDelivered = s.deliverWebhook(ctx, client, req, event, webhookOptions{
			hubUser:   hubUser,
			adminNote: req.AdminNote,
			resent:    true,
		})
	}

	if req.Status == models.MergeStatusCompleted {
		result.EmailSent = s.sendLinkConfirmationEmail(ctx, req)
	} else {
		result.EmailSent = s.resendWelcomeEmail(ctx, req)
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventNotificationsResent,
			Severity:     models.SeverityInfo,
			ActorUserID:  admin.ID,
			ResourceType: models.ResourceMergeRequest,
			ResourceID:   req.ID,
			Action:       "resend_notifications",
			Details: models.AuditDetails{
				"webhook_delivered": result.WebhookDelivered,
				"email_sent":        result.EmailSent,
			},
			Success: true,
		})
	}
	s.metrics.RecordResend()

	return s.reload(req.ID), result, nil
}

// List returns merge requests for the admin review queue.
func (s *MergeService) List(
	params store.PaginationParams,
	filters store.MergeRequestFilters,
) ([]models.MergeRequest, store.PaginationResult, error) {
	return s.store.ListMergeRequestsPaginated(params, filters)
}

// Get returns one merge request by id.
func (s *MergeService) Get(id string) (*models.MergeRequest, error) {
	req, err := s.store.GetMergeRequest(id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// PendingCount returns the number of requests awaiting review.
func (s *MergeService) PendingCount() (int64, error) {
	return s.store.CountMergeRequestsByStatus(models.MergeStatusPending)
}

type webhookOptions struct {
	hubUser   *models.User
	adminNote string
	resent    bool
}

// deliverWebhook signs and sends the event to the partner, marking the
// request on first successful delivery. Returns whether delivery
// succeeded (an unconfigured URL counts as success).
func (s *MergeService) deliverWebhook(
	ctx context.Context,
	client *models.OAuthClient,
	req *models.MergeRequest,
	event webhook.Event,
	opts webhookOptions,
) bool {
	payload := webhook.Payload{
		Event:                event,
		RequestID:            req.ID,
		Email:                req.Email,
		SourceUserID:         req.SourceUserID,
		HubUserID:            req.TargetUserID,
		MergeType:            req.MergeType,
		PlatformDataImported: len(req.PlatformData) > 0 && event != webhook.EventMergeRejected,
		Resent:               opts.resent,
		AdminNote:            opts.adminNote,
		Timestamp:            time.Now(),
	}
	if opts.hubUser != nil {
		payload.ProfileData = &webhook.ProfileData{
			DisplayName:   opts.hubUser.DisplayName,
			AvatarURL:     opts.hubUser.AvatarURL,
			PlatformCount: opts.hubUser.PlatformCount,
		}
	}

	result := s.webhooks.Send(ctx, client.WebhookURL, client.WebhookSecret, payload)
	s.metrics.RecordWebhookDelivery(string(event), result.Delivered)

	if result.Delivered && client.HasWebhook() && !req.WebhookSent {
		if err := s.store.MarkWebhookSent(req.ID); err != nil {
			log.Printf("Failed to mark webhook sent for request %s: %v", req.ID, err)
		}
	}
	return result.Delivered
}

func (s *MergeService) sendWelcomeEmail(ctx context.Context, req *models.MergeRequest, rawToken string) bool {
	msg := mailer.Message{
		Template: mailer.TemplateWelcome,
		To:       req.Email,
		Data: map[string]any{
			"password_set_url": fmt.Sprintf("%s/set-password?token=%s", s.cfg.BaseURL, rawToken),
			"source_platform":  req.SourcePlatform,
		},
	}
	return s.sendMail(ctx, msg)
}

// resendWelcomeEmail rotates the password-set token and sends a fresh
// invite. The old token keeps working until it expires; the new hash row
// simply joins it.
func (s *MergeService) resendWelcomeEmail(ctx context.Context, req *models.MergeRequest) bool {
	user, err := s.store.GetUserByID(req.TargetUserID)
	if err != nil {
		log.Printf("Cannot resend welcome email for request %s: %v", req.ID, err)
		return false
	}
	if user.PasswordHash != "" {
		// Password already set; nothing to invite.
		return false
	}

	client, err := s.store.GetClient(req.SourcePlatform)
	if err != nil {
		log.Printf("Cannot resend welcome email for request %s: %v", req.ID, err)
		return false
	}

	rawToken, err := s.createPasswordInvite(req, user, client, SubmitInput{
		SourceUserID: req.SourceUserID,
		PlatformData: req.PlatformData,
	})
	if err != nil {
		log.Printf("Failed to rotate password invite for request %s: %v", req.ID, err)
		return false
	}
	return s.sendWelcomeEmail(ctx, req, rawToken)
}

func (s *MergeService) sendLinkConfirmationEmail(ctx context.Context, req *models.MergeRequest) bool {
	msg := mailer.Message{
		Template: mailer.TemplateLinkConfirmation,
		To:       req.Email,
		Data: map[string]any{
			"source_platform": req.SourcePlatform,
		},
	}
	return s.sendMail(ctx, msg)
}

func (s *MergeService) sendMail(ctx context.Context, msg mailer.Message) bool {
	err := s.mail.Send(ctx, msg)
	if err != nil {
		log.Printf("Failed to send %s email to %s: %v", msg.Template, msg.To, err)
	}
	s.metrics.RecordEmailDelivery(string(msg.Template), err == nil)
	return err == nil
}

func (s *MergeService) auditSubmission(ctx context.Context, req *models.MergeRequest, client *models.OAuthClient) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventMergeRequestSubmitted,
		Severity:     models.SeverityInfo,
		ResourceType: models.ResourceMergeRequest,
		ResourceID:   req.ID,
		Action:       "submit_merge_request",
		Details: models.AuditDetails{
			"source_platform": client.ClientID,
			"platform_name":   client.PlatformName,
			"merge_type":      string(req.MergeType),
			"status":          string(req.Status),
		},
		Success: true,
	})
}

func (s *MergeService) auditDecision(
	ctx context.Context,
	req *models.MergeRequest,
	admin *models.User,
	eventType models.EventType,
	action, note string,
) {
	if s.audit == nil {
		return
	}
	details := models.AuditDetails{
		"merge_type":      string(req.MergeType),
		"source_platform": req.SourcePlatform,
	}
	if note != "" {
		details["admin_note"] = note
	}
	// Decisions are privileged; write the trail synchronously so it
	// cannot be lost to a dropped buffer.
	if err := s.audit.LogSync(ctx, AuditLogEntry{
		EventType:    eventType,
		Severity:     models.SeverityInfo,
		ActorUserID:  admin.ID,
		ResourceType: models.ResourceMergeRequest,
		ResourceID:   req.ID,
		Action:       action,
		Details:      details,
		Success:      true,
	}); err != nil {
		log.Printf("Failed to write decision audit log for request %s: %v", req.ID, err)
	}
}

func (s *MergeService) recordDecisionMetric(approve bool, result string) {
	action := "reject"
	if approve {
		action = "approve"
	}
	s.metrics.RecordDecision(action, result)
}

func (s *MergeService) reload(id string) *models.MergeRequest {
	req, err := s.store.GetMergeRequest(id)
	if err != nil {
		return &models.MergeRequest{ID: id}
	}
	return req
}

// NormalizeEmail lower-cases, trims, and validates an email address.
// Addresses with display names ("Bob <bob@x>") are rejected; the intake
// API expects a bare address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// validatePlatformData bounds the opaque partner payload: serialized size
// and nesting depth. Content is never inspected.
func (s *MergeService) validatePlatformData(data models.PlatformData) error {
	if len(data) == 0 {
		return nil
	}

	if s.cfg.PlatformDataMaxBytes > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return ErrPlatformDataInvalid
		}
		if len(raw) > s.cfg.PlatformDataMaxBytes {
			return ErrPlatformDataInvalid
		}
	}

	if s.cfg.PlatformDataMaxDepth > 0 {
		for _, v := range data {
			if valueDepth(v) >= s.cfg.PlatformDataMaxDepth {
				return ErrPlatformDataInvalid
			}
		}
	}
	return nil
}

// valueDepth returns the nesting depth of a decoded JSON value. Scalars
// are depth 0.
func valueDepth(v any) int {
	switch typed := v.(type) {
	case map[string]any:
		maxChild := 0
		for _, child := range typed {
			if d := valueDepth(child); d > maxChild {
				maxChild = d
			}
		}
		return maxChild + 1
	case []any:
		maxChild := 0
		for _, child := range typed {
			if d := valueDepth(child); d > maxChild {
				maxChild = d
			}
		}
		return maxChild + 1
	default:
		return 0
	}
}
