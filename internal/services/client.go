package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-mergegate/mergegate/internal/cache"
	"github.com/go-mergegate/mergegate/internal/models"
	"github.com/go-mergegate/mergegate/internal/store"
	"github.com/go-mergegate/mergegate/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const clientCacheKeyPrefix = "client:"

// webhookSecretLength is the length of the random signing key handed to
// partners. The key is stored in the clear because the dispatcher needs
// it to sign outbound payloads.
const webhookSecretLength = 48

// ClientService manages the partner client registry. Reads on the intake
// path go through a cache-aside layer; every write invalidates the entry.
type ClientService struct {
	store    *store.Store
	cache    cache.Cache[models.OAuthClient]
	cacheTTL time.Duration
	audit    *AuditService
}

func NewClientService(
	s *store.Store,
	c cache.Cache[models.OAuthClient],
	cacheTTL time.Duration,
	audit *AuditService,
) *ClientService {
	return &ClientService{
		store:    s,
		cache:    c,
		cacheTTL: cacheTTL,
		audit:    audit,
	}
}

type CreateClientRequest struct {
	PlatformName string
	Description  string
	Scopes       string
	WebhookURL   string
	CreatedBy    string
}

type UpdateClientRequest struct {
	Description string
	Scopes      string
	WebhookURL  string
	IsActive    bool
}

// ClientResponse carries the plaintext secrets alongside the stored
// record. The secrets are only populated on creation or regeneration and
// are never recoverable afterwards.
type ClientResponse struct {
	*models.OAuthClient
	ClientSecretPlain string
	WebhookSecret     string
}

// Authenticate verifies a partner's credentials and returns the client
// record. Unknown IDs, wrong secrets, and deactivated clients all map to
// ErrInvalidClient so callers cannot distinguish them.
func (s *ClientService) Authenticate(ctx context.Context, clientID, clientSecret string) (*models.OAuthClient, error) {
	client, err := s.getCached(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	if !client.IsActive {
		return nil, ErrInvalidClient
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.ClientSecretHash), []byte(clientSecret)); err != nil {
		return nil, ErrInvalidClient
	}

	return client, nil
}

// GetClient returns a client by ID, bypassing the cache.
func (s *ClientService) GetClient(clientID string) (*models.OAuthClient, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientService) ListClients() ([]models.OAuthClient, error) {
	return s.store.ListClients()
}

func (s *ClientService) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	if strings.TrimSpace(req.PlatformName) == "" {
		return nil, errors.New("platform name is required")
	}

	clientID := uuid.New().String()
	clientSecret := uuid.New().String()

	secretHash, err := bcrypt.GenerateFromPassword([]byte(clientSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	webhookSecret, err := token.Generate(webhookSecretLength)
	if err != nil {
		return nil, err
	}

	scopes := strings.TrimSpace(req.Scopes)
	if scopes == "" {
		scopes = "merge:submit"
	}

	client := &models.OAuthClient{
		ClientID:         clientID,
		ClientSecretHash: string(secretHash),
		WebhookSecret:    webhookSecret,
		PlatformName:     strings.TrimSpace(req.PlatformName),
		Description:      strings.TrimSpace(req.Description),
		Scopes:           scopes,
		WebhookURL:       strings.TrimSpace(req.WebhookURL),
		IsActive:         true,
		CreatedBy:        req.CreatedBy,
	}

	if err := s.store.CreateClient(client); err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventClientCreated,
			Severity:     models.SeverityInfo,
			ActorUserID:  req.CreatedBy,
			ResourceType: models.ResourceClient,
			ResourceID:   client.ClientID,
			Action:       "create_client",
			Details: models.AuditDetails{
				"platform_name": client.PlatformName,
			},
			Success: true,
		})
	}

	return &ClientResponse{
		OAuthClient:       client,
		ClientSecretPlain: clientSecret,
		WebhookSecret:     webhookSecret,
	}, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, clientID string, req UpdateClientRequest) error {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return ErrClientNotFound
	}

	client.Description = strings.TrimSpace(req.Description)
	client.Scopes = strings.TrimSpace(req.Scopes)
	client.WebhookURL = strings.TrimSpace(req.WebhookURL)
	client.IsActive = req.IsActive

	if err := s.store.UpdateClient(client); err != nil {
		return err
	}

	s.invalidate(ctx, clientID)
	return nil
}

// RegenerateSecret replaces a client's API secret and returns the new
// plaintext value. The previous secret stops working immediately.
func (s *ClientService) RegenerateSecret(ctx context.Context, clientID, actorUserID string) (string, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return "", ErrClientNotFound
	}

	newSecret := uuid.New().String()
	secretHash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	client.ClientSecretHash = string(secretHash)
	if err := s.store.UpdateClient(client); err != nil {
		return "", err
	}

	s.invalidate(ctx, clientID)

	if s.audit != nil {
		s.audit.Log(ctx, AuditLogEntry{
			EventType:    models.EventClientSecretRegenerated,
			Severity:     models.SeverityWarning,
			ActorUserID:  actorUserID,
			ResourceType: models.ResourceClient,
			ResourceID:   clientID,
			Action:       "regenerate_client_secret",
			Success:      true,
		})
	}

	return newSecret, nil
}

func (s *ClientService) getCached(ctx context.Context, clientID string) (*models.OAuthClient, error) {
	if s.cache == nil {
		return s.store.GetClient(clientID)
	}

	client, err := cache.GetWithFetch(ctx, s.cache, clientCacheKeyPrefix+clientID, s.cacheTTL,
		func(_ context.Context, _ string) (models.OAuthClient, error) {
			c, err := s.store.GetClient(clientID)
			if err != nil {
				return models.OAuthClient{}, err
			}
			return *c, nil
		})
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *ClientService) invalidate(ctx context.Context, clientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, clientCacheKeyPrefix+clientID); err != nil &&
		!errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("Failed to invalidate client cache for %s: %v", clientID, err)
	}
}
