package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-mergegate/mergegate/internal/config"
	"github.com/go-mergegate/mergegate/internal/metrics"
	"github.com/go-mergegate/mergegate/internal/middleware"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/services"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	recorder metrics.Recorder,
	audit *services.AuditService,
) (*gin.Engine, error) {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	setupMetricsEndpoint(r, cfg)

	intakeLimiter, err := setupIntakeRateLimiter(cfg, audit)
	if err != nil {
		return nil, err
	}

	// Partner-facing API
	api := r.Group("/api/v1")
	{
		if intakeLimiter != nil {
			api.POST("/merge-requests", intakeLimiter, h.intake.Submit)
		} else {
			api.POST("/merge-requests", h.intake.Submit)
		}
		api.POST("/provision/password", h.provision.SetPassword)
	}

	// Admin decision gateway
	r.POST("/admin/login", h.admin.Login)

	admin := r.Group("/admin")
	admin.Use(middleware.RequireAdmin(db, cfg.JWTSecret))
	{
		admin.GET("/merge-requests", h.admin.List)
		admin.POST("/merge-requests/:id/decision", h.admin.Decide)
		admin.POST("/merge-requests/:id/resend", h.admin.Resend)
		admin.GET("/audit", h.admin.Audit)

		admin.GET("/clients", h.client.List)
		admin.POST("/clients", h.client.Create)
		admin.PUT("/clients/:id", h.client.Update)
		admin.POST("/clients/:id/regenerate-secret", h.client.RegenerateSecret)
	}

	logServerStartup(cfg)

	return r, nil
}

// setupIntakeRateLimiter builds the per-IP limiter for the intake
// endpoint, or nil when disabled. Rejected requests leave a security
// event in the audit trail.
func setupIntakeRateLimiter(
	cfg *config.Config,
	audit *services.AuditService,
) (gin.HandlerFunc, error) {
	if !cfg.RateLimitEnabled {
		log.Println("Intake rate limiting disabled")
		return nil, nil
	}

	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		CleanupInterval:   cfg.RateLimitCleanup,
		StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStore),
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		RedisDB:           cfg.RedisDB,
		OnLimitReached: func(clientIP, path string) {
			audit.Log(context.Background(), services.AuditLogEntry{
				EventType: models.EventRateLimitExceeded,
				Severity:  models.SeverityWarning,
				ActorIP:   clientIP,
				Action:    "intake_rate_limited",
				Details:   models.AuditDetails{"path": path},
				Success:   false,
			})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	log.Printf(
		"Intake rate limiting: %d req/min per IP (%s)",
		cfg.RateLimitPerMinute, cfg.RateLimitStore,
	)
	return limiter, nil
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction]
	gin.SetMode(mode)
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Identity merge engine starting on %s", cfg.ServerAddr)
	log.Printf("Intake endpoint: %s/api/v1/merge-requests", cfg.BaseURL)
	log.Printf("Default admin: check logs for credentials on first run")
}
