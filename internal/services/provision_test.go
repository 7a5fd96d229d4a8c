package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-mergegate/mergegate/internal/metrics"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestProvisionService(t *testing.T, s *store.Store) *ProvisionService {
	t.Helper()
	return NewProvisionService(s, NewAuditService(s, false, 10), metrics.NewNoopMetrics())
}

// provisionFixture auto-provisions an account through the intake flow and
// returns the raw password token captured from the welcome email.
func provisionFixture(t *testing.T, s *store.Store, mail *mailRecorder, email string) (*models.MergeRequest, string) {
	t.Helper()
	svc := newTestMergeService(t, s, mail)
	client := createTestClient(t, s, "")
	req, err := svc.Submit(context.Background(), client, SubmitInput{
		Email:        email,
		SourceUserID: "f-1",
	})
	require.NoError(t, err)
	require.Equal(t, models.MergeStatusProvisioned, req.Status)

	msg, ok := mail.last()
	require.True(t, ok)
	return req, tokenFromWelcomeMail(t, msg)
}

func TestSetPassword(t *testing.T) {
	s := setupTestStore(t)
	mail := &mailRecorder{}
	req, rawToken := provisionFixture(t, s, mail, "hank@example.com")
	svc := newTestProvisionService(t, s)

	user, err := svc.SetPassword(context.Background(), rawToken, "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "hank@example.com", user.Email)
	assert.True(t, user.EmailConfirmed)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))

	// Merge request records the completed activation
	updated, err := s.GetMergeRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProvisionStatusPasswordSet, updated.ProvisionStatus)

	t.Run("token is single use", func(t *testing.T) {
		_, err := svc.SetPassword(context.Background(), rawToken, "another password")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestSetPasswordWeakPassword(t *testing.T) {
	s := setupTestStore(t)
	mail := &mailRecorder{}
	_, rawToken := provisionFixture(t, s, mail, "ivy@example.com")
	svc := newTestProvisionService(t, s)

	_, err := svc.SetPassword(context.Background(), rawToken, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	// A weak attempt must not burn the token
	_, err = svc.SetPassword(context.Background(), rawToken, "long enough now")
	assert.NoError(t, err)
}

func TestSetPasswordUnknownToken(t *testing.T) {
	s := setupTestStore(t)
	svc := newTestProvisionService(t, s)

	_, err := svc.SetPassword(context.Background(), "no-such-token", "valid password")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSetPasswordExpiredToken(t *testing.T) {
	s := setupTestStore(t)
	svc := newTestProvisionService(t, s)

	user := createHubUser(t, s, "judy@example.com")
	rawToken, err := token.Generate(token.DefaultLength)
	require.NoError(t, err)
	require.NoError(t, s.CreatePendingProvision(&models.PendingProvision{
		ID:                uuid.New().String(),
		Email:             user.Email,
		HubUserID:         user.ID,
		PlatformID:        "forum",
		PasswordTokenHash: token.Hash(rawToken),
		TokenExpiresAt:    time.Now().Add(-time.Hour),
		Status:            models.PendingProvisionPending,
		MergeRequestID:    uuid.New().String(),
	}))

	_, err = svc.SetPassword(context.Background(), rawToken, "valid password")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExpireStale(t *testing.T) {
	s := setupTestStore(t)
	mail := &mailRecorder{}
	_, rawToken := provisionFixture(t, s, mail, "kate@example.com")
	svc := newTestProvisionService(t, s)

	// Fresh token survives a sweep
	count, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// Age the row past its TTL and sweep again
	provision, err := s.GetPendingProvisionByTokenHash(token.Hash(rawToken))
	require.NoError(t, err)
	provision.TokenExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.DB().Save(provision).Error)

	count, err = svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.SetPassword(context.Background(), rawToken, "valid password")
	assert.ErrorIs(t, err, ErrTokenExpired)
}
