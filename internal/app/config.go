package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv             string        `envconfig:"APP_ENV" default:"development" validate:"oneof=development test staging production"`
	AppAddr            string        `envconfig:"APP_ADDR" default:":8080" validate:"required,hostname_port"`
	AppReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s" validate:"gt=0s"`
	AppWriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s" validate:"gt=0s"`
	AppRequestTimeout  time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s" validate:"gt=0s"`
	AppShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379" validate:"required,hostname_port"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true" validate:"required"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h" validate:"gt=0s"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true" validate:"required"`

	RateLimitPerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60" validate:"gte=0"`
	MetricsEnabled     bool `envconfig:"METRICS_ENABLED" default:"true"`

	// SeedUsers is a "name|email|phone;..." list created at boot.
	SeedUsers string `envconfig:"SEED_USERS"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared on Config.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
