package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-mergegate/mergegate/internal/metrics"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/token"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length for
// auto-provisioned accounts.
const MinPasswordLength = 8

// ProvisionService completes the self-service half of auto-provisioning:
// the user presents the emailed token and chooses a password. It also owns
// the background expiry sweep for stale invites.
type ProvisionService struct {
	store   *store.Store
	audit   *AuditService
	metrics metrics.Recorder
}

func NewProvisionService(s *store.Store, audit *AuditService, recorder metrics.Recorder) *ProvisionService {
	return &ProvisionService{
		store:   s,
		audit:   audit,
		metrics: recorder,
	}
}

// SetPassword consumes a password-set token and stores the chosen
// password. The token is single-use: the consume step is a
// compare-and-swap, so of two concurrent presentations exactly one
// succeeds. A token presented after its TTL gets ErrTokenExpired;
// unknown or already-used tokens get ErrTokenInvalid, with no hint
// which of the two it was.
func (s *ProvisionService) SetPassword(ctx context.Context, rawToken, password string) (*models.User, error) {
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if rawToken == "" {
		return nil, ErrTokenInvalid
	}

	provision, err := s.store.GetPendingProvisionByTokenHash(token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if provision.Status == models.PendingProvisionExpired || provision.IsExpired() {
		return nil, ErrTokenExpired
	}
	if provision.Status != models.PendingProvisionPending {
		return nil, ErrTokenInvalid
	}

	// Hash before consuming so a bcrypt failure doesn't burn the token.
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if err := s.store.ConsumePendingProvision(provision.ID); err != nil {
		if errors.Is(err, store.ErrProvisionConsumed) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	user, err := s.store.GetUserByID(provision.HubUserID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetUserPassword(user.ID, string(passwordHash)); err != nil {
		return nil, err
	}
	user.PasswordHash = string(passwordHash)

	// Reaching the emailed link proves control of the mailbox.
	if !user.EmailConfirmed {
		user.EmailConfirmed = true
		if err := s.store.UpdateUser(user); err != nil {
			log.Printf("Failed to mark email confirmed for user %s: %v", user.ID, err)
		}
	}

	if err := s.store.UpdateProvisionStatus(
		provision.MergeRequestID,
		models.ProvisionStatusPasswordSet,
	); err != nil {
		log.Printf("Failed to update provision status for request %s: %v", provision.MergeRequestID, err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventPasswordSet,
			Severity:     models.SeverityInfo,
			ActorUserID:  user.ID,
			ResourceType: models.ResourceProvision,
			ResourceID:   provision.ID,
			Action:       "set_provisioned_password",
			Details: models.AuditDetails{
				"merge_request_id": provision.MergeRequestID,
			},
			Success: true,
		})
	}
	s.metrics.RecordProvisionCompleted()

	return user, nil
}

// ExpireStale transitions pending invites past their TTL into the expired
// state. Called periodically by the background sweeper.
func (s *ProvisionService) ExpireStale(ctx context.Context) (int64, error) {
	count, err := s.store.ExpirePendingProvisions(time.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("Expired %d stale password-set invites", count)
		s.metrics.RecordProvisionsExpired(int(count))
		if s.audit != nil {
			s.audit.Log(ctx, AuditLogEntry{
				EventType:    models.EventProvisionExpired,
				Severity:     models.SeverityInfo,
				ResourceType: models.ResourceProvision,
				Action:       "expire_stale_invites",
				Details: models.AuditDetails{
					"expired_count": count,
				},
				Success: true,
			})
		}
	}
	return count, nil
}
