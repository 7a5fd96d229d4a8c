// Package bootstrap wires configuration, storage, services, and the HTTP
// layer together and runs the server under graceful shutdown.
package bootstrap

import (
	"net/http"

	"github.com/go-mergegate/mergegate/internal/cache"
	"github.com/go-mergegate/mergegate/internal/config"
	mailer "github.com/go-mergegate/mergegate/internal/mail"
	"github.com/go-mergegate/mergegate/internal/metrics"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/services"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/webhook"

	"github.com/gin-gonic/gin"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB              *store.Store
	MetricsRecorder metrics.Recorder
	ClientCache     cache.Cache[models.OAuthClient]
	Webhooks        *webhook.Dispatcher
	Mail            mailer.Sender

	// Services
	AuditService     *services.AuditService
	ClientService    *services.ClientService
	MergeService     *services.MergeService
	ProvisionService *services.ProvisionService
	AuthService      *services.AuthService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	app := &Application{Config: cfg}

	// Phase 1: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 2: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 3: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 4: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache, and the
// delivery collaborators
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)

	app.ClientCache, err = initializeClientCache(app.Config)
	if err != nil {
		return err
	}

	app.Webhooks = webhook.NewDispatcher(
		webhook.WithTimeout(app.Config.WebhookTimeout),
		webhook.WithMaxRetries(app.Config.WebhookMaxRetries),
		webhook.WithInitialRetryDelay(app.Config.WebhookRetryDelay),
		webhook.WithMaxRetryDelay(app.Config.WebhookMaxRetryDelay),
	)

	app.Mail, err = initializeMailSender(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	// Audit service first; the others log through it.
	app.AuditService = services.NewAuditService(
		app.DB,
		app.Config.EnableAuditLogging,
		app.Config.AuditLogBufferSize,
	)

	app.ClientService = services.NewClientService(
		app.DB,
		app.ClientCache,
		app.Config.ClientCacheTTL,
		app.AuditService,
	)

	app.MergeService = services.NewMergeService(
		app.DB,
		services.NewIdentityResolver(app.DB),
		app.Webhooks,
		app.Mail,
		app.AuditService,
		app.MetricsRecorder,
		services.MergeConfig{
			BaseURL:              app.Config.BaseURL,
			ProvisionTokenLength: app.Config.ProvisionTokenLength,
			ProvisionTokenTTL:    app.Config.ProvisionTokenTTL,
			PlatformDataMaxBytes: app.Config.PlatformDataMaxBytes,
			PlatformDataMaxDepth: app.Config.PlatformDataMaxDepth,
		},
	)

	app.ProvisionService = services.NewProvisionService(
		app.DB,
		app.AuditService,
		app.MetricsRecorder,
	)

	app.AuthService = services.NewAuthService(
		app.DB,
		app.Config.JWTSecret,
		app.Config.JWTExpiration,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.ClientService,
		app.MergeService,
		app.ProvisionService,
		app.AuthService,
		app.AuditService,
	)

	router, err := setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		app.AuditService,
	)
	if err != nil {
		return err
	}
	app.Router = router

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and background jobs, then
// blocks until shutdown completes
func (app *Application) startWithGracefulShutdown() {
	m := newGracefulManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addAuditServiceShutdownJob(m, app.AuditService)
	addAuditLogCleanupJob(m, app.Config, app.AuditService)
	addProvisionSweeperJob(m, app.Config, app.ProvisionService)
	addPendingGaugeJob(m, app.Config, app.MergeService, app.MetricsRecorder)
	addClientCacheShutdownJob(m, app.ClientCache)

	<-m.Done()
}
