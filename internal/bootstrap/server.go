package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-mergegate/mergegate/internal/cache"
	"github.com/go-mergegate/mergegate/internal/config"
	"github.com/go-mergegate/mergegate/internal/metrics"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/services"

	"github.com/appleboy/graceful"
)

func newGracefulManager() *graceful.Manager {
	return graceful.NewManager()
}

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addAuditServiceShutdownJob adds audit service shutdown handler
func addAuditServiceShutdownJob(m *graceful.Manager, auditService *services.AuditService) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down audit service...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := auditService.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down audit service: %v", err)
			return err
		}
		return nil
	})
}

// addAuditLogCleanupJob adds periodic audit log retention cleanup
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		cleanup := func() {
			if deleted, err := auditService.CleanupOldLogs(cfg.AuditLogRetention); err != nil {
				log.Printf("Failed to cleanup old audit logs: %v", err)
			} else if deleted > 0 {
				log.Printf("Cleaned up %d old audit logs", deleted)
			}
		}

		// Run cleanup immediately on startup
		cleanup()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addProvisionSweeperJob adds the periodic sweep that expires stale
// password-set invites
func addProvisionSweeperJob(
	m *graceful.Manager,
	cfg *config.Config,
	provisionService *services.ProvisionService,
) {
	if cfg.ProvisionSweepEvery <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.ProvisionSweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := provisionService.ExpireStale(ctx); err != nil {
					log.Printf("Provision expiry sweep failed: %v", err)
				}
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addPendingGaugeJob keeps the pending-requests gauge fresh
func addPendingGaugeJob(
	m *graceful.Manager,
	cfg *config.Config,
	mergeService *services.MergeService,
	recorder metrics.Recorder,
) {
	if !cfg.MetricsEnabled {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		update := func() {
			count, err := mergeService.PendingCount()
			if err != nil {
				log.Printf("Failed to count pending merge requests: %v", err)
				return
			}
			recorder.SetPendingRequestsCount(int(count))
		}

		update()

		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addClientCacheShutdownJob closes the client cache backend on shutdown
func addClientCacheShutdownJob(m *graceful.Manager, c cache.Cache[models.OAuthClient]) {
	if c == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := c.Close(); err != nil {
			log.Printf("Error closing client cache: %v", err)
			return err
		}
		log.Println("Client cache closed")
		return nil
	})
}
