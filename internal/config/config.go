package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Auth0
	Auth0Domain   string `env:"AUTH0_DOMAIN"`
	Auth0Audience string `env:"AUTH0_AUDIENCE"`

	// Server
	Port        string   `env:"PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	Env         string   `env:"ENV" envDefault:"development"`

	// Shop
	ShopTimezone string `env:"SHOP_TIMEZONE" envDefault:"Asia/Kolkata"`

	// Closure lock. Empty RedisURL falls back to an in-process lock.
	RedisURL        string        `env:"REDIS_URL"`
	ClosureLockTTL  time.Duration `env:"CLOSURE_LOCK_TTL" envDefault:"30s"`
	ClosureLockWait time.Duration `env:"CLOSURE_LOCK_WAIT" envDefault:"10s"`

	// Rate limiting per authenticated actor
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// S3 archive of closure snapshots
	S3 S3Config `envPrefix:"S3_"`
}

// S3Config holds AWS S3 configuration. An empty Bucket disables archiving.
type S3Config struct {
	Region          string `env:"REGION" envDefault:"ap-south-1"`
	Bucket          string `env:"BUCKET"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Endpoint        string `env:"ENDPOINT"` // Optional: for MinIO/LocalStack local dev
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location resolves the shop's time zone used for business dates
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ShopTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SHOP_TIMEZONE %q: %w", c.ShopTimezone, err)
	}
	return loc, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ClosureLockTTL <= 0 || c.ClosureLockWait <= 0 {
		return fmt.Errorf("CLOSURE_LOCK_TTL and CLOSURE_LOCK_WAIT must be positive")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
