package bootstrap

import (
	"github.com/go-mergegate/mergegate/internal/config"
	"github.com/go-mergegate/mergegate/internal/handlers"
	"github.com/go-mergegate/mergegate/internal/services"
)

// handlerSet groups all HTTP handlers
type handlerSet struct {
	intake    *handlers.IntakeHandler
	provision *handlers.ProvisionHandler
	admin     *handlers.AdminHandler
	client    *handlers.ClientHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	clientService *services.ClientService,
	mergeService *services.MergeService,
	provisionService *services.ProvisionService,
	authService *services.AuthService,
	auditService *services.AuditService,
) handlerSet {
	return handlerSet{
		intake:    handlers.NewIntakeHandler(clientService, mergeService),
		provision: handlers.NewProvisionHandler(provisionService),
		admin: handlers.NewAdminHandler(
			authService,
			mergeService,
			auditService,
			cfg.JWTExpiration,
		),
		client: handlers.NewClientHandler(clientService),
	}
}
