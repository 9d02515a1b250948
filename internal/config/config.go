// Package config handles application configuration via environment variables.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the auth service.
type Config struct {
	// Server settings
	Host string `env:"XTRA_HOST" env-default:"0.0.0.0"`
	Port int    `env:"XTRA_PORT" env-default:"8080"`

	// Canva OAuth settings (required)
	CanvaClientID     string `env:"CANVA_CLIENT_ID"`
	CanvaClientSecret string `env:"CANVA_CLIENT_SECRET"`
	CanvaRedirectURI  string `env:"CANVA_REDIRECT_URI"`

	// Provider endpoints (overridable for tests)
	CanvaAuthURL  string `env:"CANVA_AUTH_URL" env-default:"https://www.canva.com/api/oauth/authorize"`
	CanvaTokenURL string `env:"CANVA_TOKEN_URL" env-default:"https://api.canva.com/rest/v1/oauth/token"`

	// Token exchange timeout
	ExchangeTimeout time.Duration `env:"EXCHANGE_TIMEOUT" env-default:"15s"`

	// Session settings
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" env-default:"24h"`

	// Pending authorization store
	PendingStore string        `env:"PENDING_STORE" env-default:"memory"` // memory or redis
	PendingTTL   time.Duration `env:"PENDING_TTL" env-default:"10m"`

	// Redis settings (used when PENDING_STORE=redis)
	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Rate limiting and lockout
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" env-default:"10"` // attempts per minute per IP
	LockoutAttempts int           `env:"LOCKOUT_MAX_ATTEMPTS" env-default:"5"`
	LockoutDuration time.Duration `env:"LOCKOUT_DURATION" env-default:"15m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"` // json or text

	// Internal flags (not from env)
	SessionSecretGenerated bool `env:"-"` // True if secret was auto-generated
}

// Load reads configuration from environment variables. Missing provider
// credentials are a startup error, never discovered lazily on first request.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.CanvaClientID == "" {
		return nil, fmt.Errorf("CANVA_CLIENT_ID is required")
	}
	if cfg.CanvaClientSecret == "" {
		return nil, fmt.Errorf("CANVA_CLIENT_SECRET is required")
	}
	if cfg.CanvaRedirectURI == "" {
		return nil, fmt.Errorf("CANVA_REDIRECT_URI is required")
	}
	if cfg.PendingStore != "memory" && cfg.PendingStore != "redis" {
		return nil, fmt.Errorf("PENDING_STORE must be 'memory' or 'redis', got %q", cfg.PendingStore)
	}

	// Generate random session secret if not provided
	if cfg.SessionSecret == "" {
		secret, err := generateRandomSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}

	return &cfg, nil
}

// Addr returns the server address in host:port format.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// generateRandomSecret generates a cryptographically secure random string.
func generateRandomSecret(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
