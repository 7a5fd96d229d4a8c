package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Admin JWT settings
	JWTSecret     string
	JWTExpiration time.Duration

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Bootstrap
	DefaultAdminEmail    string
	DefaultAdminPassword string // empty means generate a random one

	// Provision token settings
	ProvisionTokenLength int
	ProvisionTokenTTL    time.Duration
	ProvisionSweepEvery  time.Duration

	// Intake payload bounds
	PlatformDataMaxBytes int
	PlatformDataMaxDepth int

	// Webhook delivery
	WebhookTimeout       time.Duration
	WebhookMaxRetries    int
	WebhookRetryDelay    time.Duration
	WebhookMaxRetryDelay time.Duration

	// Mail API collaborator
	MailAPIURL           string
	MailAPITimeout       time.Duration
	MailAPIAuthMode      string // "none", "simple", or "hmac"
	MailAPIAuthSecret    string
	MailAPIAuthHeader    string
	MailAPIMaxRetries    int
	MailAPIRetryDelay    time.Duration
	MailAPIMaxRetryDelay time.Duration
	MailFromAddress      string

	// Client registry cache
	ClientCacheBackend string // "memory" or "rueidis"
	ClientCacheTTL     time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// Rate limiting (intake endpoint)
	RateLimitEnabled    bool
	RateLimitPerMinute  int
	RateLimitStore      string // "memory" or "redis"
	RateLimitCleanup    time.Duration

	// Audit logging
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration

	// Metrics
	MetricsEnabled bool
	MetricsToken   string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "mergegate.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: getEnvBool("PRODUCTION", false),

		JWTSecret:     getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", time.Hour),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", "admin@localhost"),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),

		ProvisionTokenLength: getEnvInt("PROVISION_TOKEN_LENGTH", 64),
		ProvisionTokenTTL:    getEnvDuration("PROVISION_TOKEN_TTL", 24*time.Hour),
		ProvisionSweepEvery:  getEnvDuration("PROVISION_SWEEP_INTERVAL", time.Hour),

		PlatformDataMaxBytes: getEnvInt("PLATFORM_DATA_MAX_BYTES", 50*1024),
		PlatformDataMaxDepth: getEnvInt("PLATFORM_DATA_MAX_DEPTH", 5),

		WebhookTimeout:       getEnvDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:    getEnvInt("WEBHOOK_MAX_RETRIES", 2),
		WebhookRetryDelay:    getEnvDuration("WEBHOOK_RETRY_DELAY", 500*time.Millisecond),
		WebhookMaxRetryDelay: getEnvDuration("WEBHOOK_MAX_RETRY_DELAY", 2*time.Second),

		MailAPIURL:           getEnv("MAIL_API_URL", ""),
		MailAPITimeout:       getEnvDuration("MAIL_API_TIMEOUT", 10*time.Second),
		MailAPIAuthMode:      getEnv("MAIL_API_AUTH_MODE", "none"),
		MailAPIAuthSecret:    getEnv("MAIL_API_AUTH_SECRET", ""),
		MailAPIAuthHeader:    getEnv("MAIL_API_AUTH_HEADER", "X-API-Secret"),
		MailAPIMaxRetries:    getEnvInt("MAIL_API_MAX_RETRIES", 3),
		MailAPIRetryDelay:    getEnvDuration("MAIL_API_RETRY_DELAY", 1*time.Second),
		MailAPIMaxRetryDelay: getEnvDuration("MAIL_API_MAX_RETRY_DELAY", 10*time.Second),
		MailFromAddress:      getEnv("MAIL_FROM_ADDRESS", "no-reply@localhost"),

		ClientCacheBackend: getEnv("CLIENT_CACHE_BACKEND", "memory"),
		ClientCacheTTL:     getEnvDuration("CLIENT_CACHE_TTL", 5*time.Minute),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),

		RateLimitEnabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", "memory"),
		RateLimitCleanup:   getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),

		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),
	}
}

// Validate checks the enumerated settings before any infrastructure is
// built, so a typo fails fast instead of surfacing mid-request.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER value: %q (must be 'sqlite' or 'postgres')", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER is 'postgres'")
	}

	switch c.RateLimitStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid RATE_LIMIT_STORE value: %q (must be 'memory' or 'redis')", c.RateLimitStore)
	}

	switch c.ClientCacheBackend {
	case "memory", "rueidis":
	default:
		return fmt.Errorf("invalid CLIENT_CACHE_BACKEND value: %q (must be 'memory' or 'rueidis')", c.ClientCacheBackend)
	}

	switch c.MailAPIAuthMode {
	case "none", "simple", "hmac":
	default:
		return fmt.Errorf("invalid MAIL_API_AUTH_MODE value: %q (must be 'none', 'simple', or 'hmac')", c.MailAPIAuthMode)
	}

	if c.IsProduction && c.JWTSecret == "your-256-bit-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be changed from the default in production")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
