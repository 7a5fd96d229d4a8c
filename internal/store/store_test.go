package store

import (
	"testing"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	// Use in-memory SQLite database for testing
	s, err := New("sqlite", ":memory:", SeedConfig{
		AdminEmail:    "admin@test.local",
		AdminPassword: "test-admin-password",
	})
	require.NoError(t, err)
	return s
}

func newTestMergeRequest(email, sourcePlatform string) *models.MergeRequest {
	return &models.MergeRequest{
		ID:             uuid.New().String(),
		Email:          email,
		SourcePlatform: sourcePlatform,
		SourceUserID:   "src-123",
		TargetPlatform: "hub",
		MergeType:      models.MergeTypeBothExist,
		Status:         models.MergeStatusPending,
	}
}

func TestCreateMergeRequestDuplicateActive(t *testing.T) {
	s := setupTestStore(t)

	first := newTestMergeRequest("alice@example.com", "forum")
	_, err := s.CreateMergeRequest(first)
	require.NoError(t, err)

	t.Run("second active submission returns existing row", func(t *testing.T) {
		second := newTestMergeRequest("alice@example.com", "forum")
		existing, err := s.CreateMergeRequest(second)
		assert.ErrorIs(t, err, ErrDuplicateActiveRequest)
		require.NotNil(t, existing)
		assert.Equal(t, first.ID, existing.ID)
	})

	t.Run("same email on another platform is independent", func(t *testing.T) {
		other := newTestMergeRequest("alice@example.com", "shop")
		_, err := s.CreateMergeRequest(other)
		assert.NoError(t, err)
	})

	t.Run("rejected request does not block resubmission", func(t *testing.T) {
		require.NoError(t, s.DecideMergeRequest(first.ID, DecisionUpdate{
			Status:     models.MergeStatusRejected,
			ReviewedBy: "admin-1",
		}))

		again := newTestMergeRequest("alice@example.com", "forum")
		_, err := s.CreateMergeRequest(again)
		assert.NoError(t, err)
	})
}

func TestActiveRequestUniqueIndex(t *testing.T) {
	s := setupTestStore(t)

	first := newTestMergeRequest("race@example.com", "forum")
	_, err := s.CreateMergeRequest(first)
	require.NoError(t, err)

	t.Run("index rejects a second active row", func(t *testing.T) {
		// Raw insert bypassing the guarded check, the way a racing
		// transaction that passed the check would land.
		dup := newTestMergeRequest("race@example.com", "forum")
		err := s.DB().Create(dup).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("decided rows fall outside the index", func(t *testing.T) {
		require.NoError(t, s.DecideMergeRequest(first.ID, DecisionUpdate{
			Status:     models.MergeStatusRejected,
			ReviewedBy: "admin-1",
		}))

		again := newTestMergeRequest("race@example.com", "forum")
		assert.NoError(t, s.DB().Create(again).Error)
	})
}

func TestDecideMergeRequestCompareAndSwap(t *testing.T) {
	s := setupTestStore(t)

	req := newTestMergeRequest("bob@example.com", "forum")
	_, err := s.CreateMergeRequest(req)
	require.NoError(t, err)

	err = s.DecideMergeRequest(req.ID, DecisionUpdate{
		Status:       models.MergeStatusCompleted,
		ReviewedBy:   "admin-1",
		AdminNote:    "looks good",
		TargetUserID: "hub-user-1",
	})
	require.NoError(t, err)

	// Second decision loses the race
	err = s.DecideMergeRequest(req.ID, DecisionUpdate{
		Status:     models.MergeStatusRejected,
		ReviewedBy: "admin-2",
	})
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	// First decision stands
	stored, err := s.GetMergeRequest(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MergeStatusCompleted, stored.Status)
	assert.Equal(t, "admin-1", stored.ReviewedBy)
	assert.Equal(t, "hub-user-1", stored.TargetUserID)
	require.NotNil(t, stored.ReviewedAt)
}

func TestMarkWebhookSent(t *testing.T) {
	s := setupTestStore(t)

	req := newTestMergeRequest("carol@example.com", "forum")
	_, err := s.CreateMergeRequest(req)
	require.NoError(t, err)

	require.NoError(t, s.MarkWebhookSent(req.ID))

	stored, err := s.GetMergeRequest(req.ID)
	require.NoError(t, err)
	assert.True(t, stored.WebhookSent)
	require.NotNil(t, stored.WebhookSentAt)
}

func TestConsumePendingProvision(t *testing.T) {
	s := setupTestStore(t)

	provision := &models.PendingProvision{
		ID:                uuid.New().String(),
		Email:             "dave@example.com",
		HubUserID:         "hub-user-2",
		PlatformID:        "forum",
		PasswordTokenHash: "deadbeef",
		TokenExpiresAt:    time.Now().Add(time.Hour),
		Status:            models.PendingProvisionPending,
		MergeRequestID:    uuid.New().String(),
	}
	require.NoError(t, s.CreatePendingProvision(provision))

	require.NoError(t, s.ConsumePendingProvision(provision.ID))

	// A token is single-use
	err := s.ConsumePendingProvision(provision.ID)
	assert.ErrorIs(t, err, ErrProvisionConsumed)
}

func TestExpirePendingProvisions(t *testing.T) {
	s := setupTestStore(t)

	stale := &models.PendingProvision{
		ID:                uuid.New().String(),
		Email:             "old@example.com",
		HubUserID:         "hub-user-3",
		PlatformID:        "forum",
		PasswordTokenHash: "hash-stale",
		TokenExpiresAt:    time.Now().Add(-time.Minute),
		Status:            models.PendingProvisionPending,
		MergeRequestID:    uuid.New().String(),
	}
	fresh := &models.PendingProvision{
		ID:                uuid.New().String(),
		Email:             "new@example.com",
		HubUserID:         "hub-user-4",
		PlatformID:        "forum",
		PasswordTokenHash: "hash-fresh",
		TokenExpiresAt:    time.Now().Add(time.Hour),
		Status:            models.PendingProvisionPending,
		MergeRequestID:    uuid.New().String(),
	}
	require.NoError(t, s.CreatePendingProvision(stale))
	require.NoError(t, s.CreatePendingProvision(fresh))

	count, err := s.ExpirePendingProvisions(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	expired, err := s.GetPendingProvisionByTokenHash("hash-stale")
	require.NoError(t, err)
	assert.Equal(t, models.PendingProvisionExpired, expired.Status)

	kept, err := s.GetPendingProvisionByTokenHash("hash-fresh")
	require.NoError(t, err)
	assert.Equal(t, models.PendingProvisionPending, kept.Status)
}

func TestCreateUserEmailConflict(t *testing.T) {
	s := setupTestStore(t)

	user := &models.User{
		ID:    uuid.New().String(),
		Email: "erin@example.com",
		Role:  "user",
	}
	require.NoError(t, s.CreateUser(user))

	dup := &models.User{
		ID:    uuid.New().String(),
		Email: "erin@example.com",
		Role:  "user",
	}
	err := s.CreateUser(dup)
	assert.ErrorIs(t, err, ErrEmailConflict)
}

func TestUpdateProfileLedger(t *testing.T) {
	s := setupTestStore(t)

	user := &models.User{
		ID:    uuid.New().String(),
		Email: "frank@example.com",
		Role:  "user",
	}
	require.NoError(t, s.CreateUser(user))

	require.NoError(t, s.UpdateProfileLedger(user.ID, "forum", models.PlatformLink{
		SourceUserID: "f-1",
		MergeType:    models.MergeTypeBothExist,
		LinkedAt:     time.Now(),
	}))
	require.NoError(t, s.UpdateProfileLedger(user.ID, "shop", models.PlatformLink{
		SourceUserID: "s-1",
		MergeType:    models.MergeTypeBothExist,
		LinkedAt:     time.Now(),
	}))

	stored, err := s.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PlatformCount)
	assert.Contains(t, stored.ConnectedPlatforms, "forum")
	assert.Contains(t, stored.ConnectedPlatforms, "shop")

	// Relinking the same platform replaces the entry, not adds another
	require.NoError(t, s.UpdateProfileLedger(user.ID, "forum", models.PlatformLink{
		SourceUserID: "f-2",
		MergeType:    models.MergeTypeBothExist,
		LinkedAt:     time.Now(),
	}))
	stored, err = s.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PlatformCount)
	assert.Equal(t, "f-2", stored.ConnectedPlatforms["forum"].SourceUserID)
}

func TestUpsertPlatformSnapshotShallowMerge(t *testing.T) {
	s := setupTestStore(t)

	userID := uuid.New().String()
	require.NoError(t, s.UpsertPlatformSnapshot(userID, "forum", models.PlatformData{
		"karma": float64(10),
		"badge": "gold",
	}))
	require.NoError(t, s.UpsertPlatformSnapshot(userID, "forum", models.PlatformData{
		"karma": float64(25),
	}))

	snapshot, err := s.GetPlatformSnapshot(userID, "forum")
	require.NoError(t, err)
	assert.Equal(t, float64(25), snapshot.Data["karma"])
	assert.Equal(t, "gold", snapshot.Data["badge"])
}

func TestListMergeRequestsPaginated(t *testing.T) {
	s := setupTestStore(t)

	for i, email := range []string{"p1@example.com", "p2@example.com", "p3@example.com"} {
		req := newTestMergeRequest(email, "forum")
		_, err := s.CreateMergeRequest(req)
		require.NoError(t, err)
		if i == 0 {
			require.NoError(t, s.DecideMergeRequest(req.ID, DecisionUpdate{
				Status:     models.MergeStatusRejected,
				ReviewedBy: "admin-1",
			}))
		}
	}

	t.Run("filter by status", func(t *testing.T) {
		params := NewPaginationParams(1, 10, "")
		requests, pagination, err := s.ListMergeRequestsPaginated(params, MergeRequestFilters{
			Status: models.MergeStatusPending,
		})
		require.NoError(t, err)
		assert.Len(t, requests, 2)
		assert.Equal(t, int64(2), pagination.Total)
	})

	t.Run("search by email", func(t *testing.T) {
		params := NewPaginationParams(1, 10, "p2@")
		requests, _, err := s.ListMergeRequestsPaginated(params, MergeRequestFilters{})
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, "p2@example.com", requests[0].Email)
	})

	t.Run("pagination bounds", func(t *testing.T) {
		params := NewPaginationParams(1, 2, "")
		requests, pagination, err := s.ListMergeRequestsPaginated(params, MergeRequestFilters{})
		require.NoError(t, err)
		assert.Len(t, requests, 2)
		assert.Equal(t, 2, pagination.TotalPages)
		assert.True(t, pagination.HasNext)
	})

	count, err := s.CountMergeRequestsByStatus(models.MergeStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
