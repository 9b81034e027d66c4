// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache and click stream (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Public base URL of tracked links (e.g., https://go.pulseboard.app)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Where unknown or broken slugs are sent; see RedirectFallbackURL
	FallbackURL string `env:"FALLBACK_URL" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled      bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	APIRateLimitPerMinute    int  `env:"API_RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RateLimitRedirectEnabled bool `env:"RATE_LIMIT_REDIRECT_ENABLED" envDefault:"true"`
	RateLimitRedirectRPS     int  `env:"RATE_LIMIT_REDIRECT_RPS" envDefault:"100"`
	RateLimitRedirectBurst   int  `env:"RATE_LIMIT_REDIRECT_BURST" envDefault:"20"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Session tokens (HS256)
	JWTSecret   string `env:"AUTH_JWT_SECRET,required"`
	JWTAudience string `env:"AUTH_JWT_AUDIENCE" envDefault:""`
	JWTIssuer   string `env:"AUTH_JWT_ISSUER" envDefault:""`

	// Click enrichment
	IPHashSalt string `env:"IP_HASH_SALT" envDefault:""`
	GeoIPPath  string `env:"GEOIP_DB_PATH" envDefault:""`

	// Click ingestion
	AnalyticsWorkerEnabled bool `env:"ANALYTICS_WORKER_ENABLED" envDefault:"true"`
	AnalyticsBatchSize     int  `env:"ANALYTICS_BATCH_SIZE" envDefault:"100"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
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

// RedirectFallbackURL returns FALLBACK_URL, or the site root under BASE_URL
// when it is unset.
func (c *Config) RedirectFallbackURL() string {
	if c.FallbackURL != "" {
		return c.FallbackURL
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/"
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.IsProduction() && c.IPHashSalt == "" {
		return errors.New("IP_HASH_SALT is required in production")
	}
	if c.APIRateLimitPerMinute <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_PER_MINUTE must be positive, got %d", c.APIRateLimitPerMinute)
	}
	if c.AnalyticsBatchSize <= 0 {
		return fmt.Errorf("ANALYTICS_BATCH_SIZE must be positive, got %d", c.AnalyticsBatchSize)
	}
	return nil
}

// Load reads an optional .env file, parses environment variables and returns
// a validated Config. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are skipped.
func LoadFiles(paths ...string) (*Config, error) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
