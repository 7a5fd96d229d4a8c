package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitedRouter(t *testing.T, config RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limiter, err := NewRateLimiter(config)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/submit", limiter, func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func memoryLimitConfig(requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		CleanupInterval:   time.Minute,
		StoreType:         RateLimitStoreMemory,
	}
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	r := setupRateLimitedRouter(t, memoryLimitConfig(5))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	r := setupRateLimitedRouter(t, memoryLimitConfig(2))

	var lastCode int
	var lastBody string
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		r.ServeHTTP(w, req)
		lastCode = w.Code
		lastBody = w.Body.String()
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
	assert.Contains(t, lastBody, "rate_limit_exceeded")
}

func TestRateLimiterIsPerClient(t *testing.T) {
	r := setupRateLimitedRouter(t, memoryLimitConfig(1))

	// First client exhausts its quota
	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
	req1.RemoteAddr = "10.0.0.3:1234"
	r.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
	req2.RemoteAddr = "10.0.0.3:1234"
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	// A different client is unaffected
	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
	req3.RemoteAddr = "10.0.0.4:1234"
	r.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimiterReportsRejections(t *testing.T) {
	var mu sync.Mutex
	var gotIPs []string
	var gotPaths []string

	config := memoryLimitConfig(1)
	config.OnLimitReached = func(clientIP, path string) {
		mu.Lock()
		defer mu.Unlock()
		gotIPs = append(gotIPs, clientIP)
		gotPaths = append(gotPaths, path)
	}
	r := setupRateLimitedRouter(t, config)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		r.ServeHTTP(w, req)
	}

	mu.Lock()
	defer mu.Unlock()
	// First request passes, the next two are rejected and reported.
	require.Len(t, gotIPs, 2)
	assert.Equal(t, "10.0.0.5", gotIPs[0])
	assert.Equal(t, "/submit", gotPaths[0])
}

func TestRateLimiterDefaultsCleanupInterval(t *testing.T) {
	// A zero interval must not panic the memory store's eviction ticker.
	r := setupRateLimitedRouter(t, RateLimitConfig{
		RequestsPerMinute: 1,
		StoreType:         RateLimitStoreMemory,
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/submit", nil)
	req.RemoteAddr = "10.0.0.6:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
