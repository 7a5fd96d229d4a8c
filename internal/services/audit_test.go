package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskSensitiveDetails(t *testing.T) {
	hash := strings.Repeat("a", 64)
	details := models.AuditDetails{
		"password":      "hunter2",
		"client_secret": "abc-def",
		"token_hash":    hash,
		"merge_type":    "both_exist",
	}

	masked := maskSensitiveDetails(details)

	assert.Equal(t, "***REDACTED***", masked["password"])
	assert.Equal(t, "***REDACTED***", masked["client_secret"])
	assert.Equal(t, "both_exist", masked["merge_type"])

	// Token hashes keep enough to correlate without being usable
	maskedHash := masked["token_hash"].(string)
	assert.Equal(t, hash[:8]+"..."+hash[len(hash)-4:], maskedHash)
}

func TestAuditLogSyncAndQuery(t *testing.T) {
	s := setupTestStore(t)
	svc := NewAuditService(s, true, 10)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, svc.Shutdown(ctx))
	}()

	require.NoError(t, svc.LogSync(context.Background(), AuditLogEntry{
		EventType:    models.EventMergeApproved,
		Severity:     models.SeverityInfo,
		ActorUserID:  "admin-1",
		ResourceType: models.ResourceMergeRequest,
		ResourceID:   "req-1",
		Action:       "approve_merge_request",
		Details:      models.AuditDetails{"password": "should-not-survive"},
		Success:      true,
	}))

	logs, _, err := svc.GetAuditLogs(store.NewPaginationParams(1, 20, ""), store.AuditLogFilters{
		EventType: models.EventMergeApproved,
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin-1", logs[0].ActorUserID)
	assert.Equal(t, "req-1", logs[0].ResourceID)
	assert.Equal(t, "***REDACTED***", logs[0].Details["password"])
}

func TestAuditDisabledIsNoOp(t *testing.T) {
	s := setupTestStore(t)
	svc := NewAuditService(s, false, 10)

	svc.Log(context.Background(), AuditLogEntry{
		EventType: models.EventMergeRejected,
		Action:    "reject_merge_request",
	})
	require.NoError(t, svc.LogSync(context.Background(), AuditLogEntry{
		EventType: models.EventMergeRejected,
		Action:    "reject_merge_request",
	}))

	logs, _, err := svc.GetAuditLogs(store.NewPaginationParams(1, 20, ""), store.AuditLogFilters{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCleanupOldLogs(t *testing.T) {
	s := setupTestStore(t)
	svc := NewAuditService(s, true, 10)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, svc.Shutdown(ctx))
	}()

	require.NoError(t, svc.LogSync(context.Background(), AuditLogEntry{
		EventType: models.EventMergeRequestSubmitted,
		Action:    "submit_merge_request",
		Success:   true,
	}))

	// Nothing is older than a day
	deleted, err := svc.CleanupOldLogs(24 * time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// A zero retention cutoff sweeps everything written so far
	deleted, err = svc.CleanupOldLogs(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
