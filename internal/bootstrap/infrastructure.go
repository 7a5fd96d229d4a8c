package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-mergegate/mergegate/internal/cache"
	"github.com/go-mergegate/mergegate/internal/config"
	mailer "github.com/go-mergegate/mergegate/internal/mail"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"
)

// initializeDatabase opens the database, runs migrations, and seeds the
// default admin and partner client on first run
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN, store.SeedConfig{
		AdminEmail:    cfg.DefaultAdminEmail,
		AdminPassword: cfg.DefaultAdminPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database initialized (%s)", cfg.DatabaseDriver)
	return db, nil
}

// initializeClientCache picks the client-registry cache backend. Memory
// works for a single instance; rueidis shares the cache across pods.
func initializeClientCache(cfg *config.Config) (cache.Cache[models.OAuthClient], error) {
	switch cfg.ClientCacheBackend {
	case "rueidis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c, err := cache.NewRueidisCache[models.OAuthClient](
			ctx,
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			"mergegate:",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis client cache: %w", err)
		}
		log.Printf("Client cache: redis (%s)", cfg.RedisAddr)
		return c, nil
	default:
		log.Printf("Client cache: in-memory")
		return cache.NewMemoryCache[models.OAuthClient](), nil
	}
}

// initializeMailSender builds the mail API collaborator, or a no-op
// sender when no mail API is configured
func initializeMailSender(cfg *config.Config) (mailer.Sender, error) {
	if cfg.MailAPIURL == "" {
		log.Println("Mail API not configured; email delivery disabled")
		return mailer.NopSender{}, nil
	}

	sender, err := mailer.NewHTTPSender(mailer.Config{
		APIURL:        cfg.MailAPIURL,
		From:          cfg.MailFromAddress,
		Timeout:       cfg.MailAPITimeout,
		AuthMode:      cfg.MailAPIAuthMode,
		AuthSecret:    cfg.MailAPIAuthSecret,
		AuthHeader:    cfg.MailAPIAuthHeader,
		MaxRetries:    cfg.MailAPIMaxRetries,
		RetryDelay:    cfg.MailAPIRetryDelay,
		MaxRetryDelay: cfg.MailAPIMaxRetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mail sender: %w", err)
	}
	log.Printf("Mail API: %s", cfg.MailAPIURL)
	return sender, nil
}
