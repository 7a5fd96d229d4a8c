package store

import (
	"crypto/rand"
	"encoding/base64"
	"log"

	"github.com/go-mergegate/mergegate/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// SeedConfig controls the default records created on first run.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string // empty means generate a random one
}

func New(driver, dsn string, seed SeedConfig) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // surface unique-index violations as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.MergeRequest{},
		&models.PendingProvision{},
		&models.PlatformSnapshot{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	// Partial unique index backing the one-active-request guard. The
	// check-then-insert in CreateMergeRequest is not race-proof under
	// READ COMMITTED on postgres; this makes the database the arbiter.
	// The status list must stay in sync with models.ActiveStatuses.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_merge_requests_one_active
		 ON merge_requests (email, source_platform)
		 WHERE status IN ('pending', 'approved', 'provisioned')`,
	).Error; err != nil {
		return nil, err
	}

	store := &Store{db: db}

	// Seed default data
	if err := store.seedData(seed); err != nil {
		log.Printf("Warning: failed to seed data: %v", err)
	}

	return store, nil
}

// generateRandomSecret generates a random URL-safe secret of specified length
func generateRandomSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

func (s *Store) seedData(seed SeedConfig) error {
	// Create default admin user if no users exist
	var userCount int64
	s.db.Model(&models.User{}).Count(&userCount)
	userID := uuid.New().String()
	if userCount == 0 {
		password := seed.AdminPassword
		if password == "" {
			generated, err := generateRandomSecret(16)
			if err != nil {
				return err
			}
			password = generated
			log.Printf("Created default admin user: %s / %s", seed.AdminEmail, password)
		} else {
			log.Printf("Created default admin user: %s", seed.AdminEmail)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &models.User{
			ID:             userID,
			Email:          seed.AdminEmail,
			PasswordHash:   string(hash),
			Role:           "admin",
			EmailConfirmed: true,
		}
		if err := s.db.Create(user).Error; err != nil {
			return err
		}
	}

	// Create default partner client if none registered
	var clientCount int64
	s.db.Model(&models.OAuthClient{}).Count(&clientCount)
	if clientCount == 0 {
		clientID := uuid.New().String()
		clientSecret := uuid.New().String()
		secretHash, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		webhookSecret, err := generateRandomSecret(32)
		if err != nil {
			return err
		}
		client := &models.OAuthClient{
			ClientID:         clientID,
			ClientSecretHash: string(secretHash),
			WebhookSecret:    webhookSecret,
			PlatformName:     "Example Partner",
			Description:      "Default partner client for merge request intake",
			Scopes:           "merge:submit",
			IsActive:         true,
			CreatedBy:        userID,
		}
		if err := s.db.Create(client).Error; err != nil {
			return err
		}
		log.Printf("Created default partner client: %s (Example Partner)", clientID)
		log.Printf("Client Secret (save this): %s", clientSecret)
	}

	return nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}
