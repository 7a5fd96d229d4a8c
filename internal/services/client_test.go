package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-mergegate/mergegate/internal/cache"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClientService(t *testing.T, s *store.Store) *ClientService {
	t.Helper()
	return NewClientService(
		s,
		cache.NewMemoryCache[models.OAuthClient](),
		5*time.Minute,
		NewAuditService(s, false, 10),
	)
}

func TestCreateAndAuthenticateClient(t *testing.T) {
	s := setupTestStore(t)
	svc := newTestClientService(t, s)

	created, err := svc.CreateClient(context.Background(), CreateClientRequest{
		PlatformName: "Legacy Forum",
		Description:  "phpBB instance",
		WebhookURL:   "https://forum.example.com/hooks/mergegate",
		CreatedBy:    "admin-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ClientSecretPlain)
	assert.NotEmpty(t, created.WebhookSecret)
	assert.Equal(t, "merge:submit", created.Scopes)
	assert.True(t, created.IsActive)

	client, err := svc.Authenticate(context.Background(), created.ClientID, created.ClientSecretPlain)
	require.NoError(t, err)
	assert.Equal(t, "Legacy Forum", client.PlatformName)

	t.Run("wrong secret is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), created.ClientID, "wrong-secret")
		assert.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("unknown client is rejected", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "no-such-client", created.ClientSecretPlain)
		assert.ErrorIs(t, err, ErrInvalidClient)
	})
}

func TestAuthenticateInactiveClient(t *testing.T) {
	s := setupTestStore(t)
	svc := newTestClientService(t, s)

	created, err := svc.CreateClient(context.Background(), CreateClientRequest{
		PlatformName: "Retired Shop",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateClient(context.Background(), created.ClientID, UpdateClientRequest{
		IsActive: false,
	}))

	_, err = svc.Authenticate(context.Background(), created.ClientID, created.ClientSecretPlain)
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestRegenerateSecret(t *testing.T) {
	s := setupTestStore(t)
	svc := newTestClientService(t, s)

	created, err := svc.CreateClient(context.Background(), CreateClientRequest{
		PlatformName: "Wiki",
	})
	require.NoError(t, err)

	// Warm the cache, then rotate
	_, err = svc.Authenticate(context.Background(), created.ClientID, created.ClientSecretPlain)
	require.NoError(t, err)

	newSecret, err := svc.RegenerateSecret(context.Background(), created.ClientID, "admin-1")
	require.NoError(t, err)
	assert.NotEqual(t, created.ClientSecretPlain, newSecret)

	_, err = svc.Authenticate(context.Background(), created.ClientID, created.ClientSecretPlain)
	assert.ErrorIs(t, err, ErrInvalidClient)

	_, err = svc.Authenticate(context.Background(), created.ClientID, newSecret)
	assert.NoError(t, err)
}
