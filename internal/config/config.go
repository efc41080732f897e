// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultJWKSURLTemplate is the key-set endpoint of the hosted identity provider.
// The single %s is replaced with the project identifier.
const DefaultJWKSURLTemplate = "https://api.stack-auth.com/api/v1/projects/%s/.well-known/jwks.json"

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3000"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Identity provider
	AuthProjectID       string        `env:"AUTH_PROJECT_ID,required"`
	AuthJWKSURLTemplate string        `env:"AUTH_JWKS_URL_TEMPLATE" envDefault:"https://api.stack-auth.com/api/v1/projects/%s/.well-known/jwks.json"`
	AuthJWKSTimeout     time.Duration `env:"AUTH_JWKS_FETCH_TIMEOUT" envDefault:"5s"`
	AuthJWKSSharedTTL   time.Duration `env:"AUTH_JWKS_SHARED_TTL" envDefault:"1h"`
	AuthIssuer          string        `env:"AUTH_ISSUER" envDefault:""`
	AuthAudience        string        `env:"AUTH_AUDIENCE" envDefault:""`
	AuthLeeway          time.Duration `env:"AUTH_LEEWAY" envDefault:"0s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting (per authenticated subject)
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPM     int  `env:"RATE_LIMIT_RPM" envDefault:"120"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// JWKSURL renders the key-set endpoint for the configured project.
func (c *Config) JWKSURL() string {
	tmpl := c.AuthJWKSURLTemplate
	if tmpl == "" {
		tmpl = DefaultJWKSURLTemplate
	}
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, c.AuthProjectID)
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.AuthJWKSTimeout <= 0 {
		return nil, fmt.Errorf("AUTH_JWKS_FETCH_TIMEOUT must be positive, got %s", cfg.AuthJWKSTimeout)
	}
	return cfg, nil
}
