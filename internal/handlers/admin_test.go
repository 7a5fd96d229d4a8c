package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginAsAdmin(t *testing.T, env *testEnv) map[string]string {
	t.Helper()
	w := env.do(t, http.MethodPost, "/admin/login", map[string]any{
		"email":    "admin@test.local",
		"password": "test-admin-password",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	token, ok := body["access_token"].(string)
	require.True(t, ok)
	require.Equal(t, "Bearer", body["token_type"])
	return map[string]string{"Authorization": "Bearer " + token}
}

func submitPendingRequest(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/v1/merge-requests", env.submitBody(email), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "pending", body["status"])
	return body["id"].(string)
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		loginAsAdmin(t, env)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/login", map[string]any{
			"email":    "admin@test.local",
			"password": "wrong",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", decodeBody(t, w)["error"])
	})
}

func TestAdminSurfaceRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/admin/merge-requests", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDecisionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	auth := loginAsAdmin(t, env)

	require.NoError(t, env.store.CreateUser(newHubUser("pat@example.com")))
	reqID := submitPendingRequest(t, env, "pat@example.com")

	t.Run("invalid action", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/merge-requests/"+reqID+"/decision", map[string]any{
			"action": "maybe",
		}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown request", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/merge-requests/no-such-id/decision", map[string]any{
			"action": "approve",
		}, auth)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeBody(t, w)["error"])
	})

	t.Run("approve", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/merge-requests/"+reqID+"/decision", map[string]any{
			"action": "approve",
			"note":   "looks right",
		}, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "looks right", body["admin_note"])
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/merge-requests/"+reqID+"/decision", map[string]any{
			"action": "reject",
		}, auth)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "already_decided", decodeBody(t, w)["error"])
	})
}

func TestResendEndpoint(t *testing.T) {
	env := newTestEnv(t)
	auth := loginAsAdmin(t, env)

	require.NoError(t, env.store.CreateUser(newHubUser("quinn@example.com")))
	reqID := submitPendingRequest(t, env, "quinn@example.com")

	t.Run("undecided request conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/merge-requests/"+reqID+"/resend", nil, auth)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "invalid_state", decodeBody(t, w)["error"])
	})

	w := env.do(t, http.MethodPost, "/admin/merge-requests/"+reqID+"/decision", map[string]any{
		"action": "approve",
	}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("decided request reports delivery outcomes", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/admin/merge-requests/"+reqID+"/resend", nil, auth)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		// No webhook URL configured counts as delivered; email goes out
		assert.Equal(t, true, body["webhook_delivered"])
		assert.Equal(t, true, body["email_sent"])
	})
}

func TestListEndpoint(t *testing.T) {
	env := newTestEnv(t)
	auth := loginAsAdmin(t, env)

	require.NoError(t, env.store.CreateUser(newHubUser("rita@example.com")))
	submitPendingRequest(t, env, "rita@example.com")

	w := env.do(t, http.MethodGet, "/admin/merge-requests?status=pending", nil, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	requests := body["requests"].([]any)
	require.Len(t, requests, 1)
	first := requests[0].(map[string]any)
	assert.Equal(t, "rita@example.com", first["email"])

	// Platform data never leaves through the admin queue
	_, exposed := first["platform_data"]
	assert.False(t, exposed)
}

func TestCreateClientEndpoint(t *testing.T) {
	env := newTestEnv(t)
	auth := loginAsAdmin(t, env)

	w := env.do(t, http.MethodPost, "/admin/clients", map[string]any{
		"platform_name": "New Shop",
		"webhook_url":   "https://shop.example.com/hooks",
	}, auth)
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["client_id"])
	assert.NotEmpty(t, body["client_secret"])
	assert.NotEmpty(t, body["webhook_secret"])
}
