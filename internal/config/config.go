package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Rental    RentalConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Bootstrap BootstrapConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string        `env:"SERVER_PORT" envDefault:"8080"`
	Env            string        `env:"SERVER_ENV" envDefault:"development"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	MaxBodyBytes   int64         `env:"SERVER_MAX_BODY_BYTES" envDefault:"1048576"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"ludoteca"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
	Migrate   bool   `env:"DB_MIGRATE" envDefault:"true"`

	ConnectRetries int           `env:"DB_CONNECT_RETRIES" envDefault:"5"`
	SlowQuery      time.Duration `env:"DB_SLOW_QUERY" envDefault:"500ms"`
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath   string `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./keys/private.pem"`
	PublicKeyPath    string `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./keys/public.pem"`
	ExpirationMins   int    `env:"JWT_EXPIRATION_MINS" envDefault:"15"`
	Issuer           string `env:"JWT_ISSUER" envDefault:"ludoteca"`
	RefreshTokenDays int    `env:"REFRESH_TOKEN_DAYS" envDefault:"30"`
}

// RentalConfig holds lending rules
type RentalConfig struct {
	LoanDays         int           `env:"RENTAL_LOAN_DAYS" envDefault:"14"`
	MaxActivePerUser int           `env:"RENTAL_MAX_ACTIVE_PER_USER" envDefault:"3"`
	PendingTTL       time.Duration `env:"RENTAL_PENDING_TTL" envDefault:"72h"`
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	RentalExpiryInterval time.Duration `env:"RENTAL_EXPIRY_INTERVAL" envDefault:"15m"`
	TokenCleanupSchedule string        `env:"TOKEN_CLEANUP_SCHEDULE" envDefault:"0 3 * * *"`
}

// BootstrapConfig names the first administrator account
type BootstrapConfig struct {
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from the environment, after merging a local .env
// file when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LoanPeriod is the default time between approval and due date.
func (c *Config) LoanPeriod() time.Duration {
	return time.Duration(c.Rental.LoanDays) * 24 * time.Hour
}

// RefreshTokenTTL is the lifetime of an issued refresh token.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenDays) * 24 * time.Hour
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_BODY_BYTES must be positive"))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}
	if c.Database.ConnectRetries < 0 {
		errs = append(errs, errors.New("DB_CONNECT_RETRIES must not be negative"))
	}

	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.JWT.RefreshTokenDays <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_DAYS must be positive"))
	}

	if c.Rental.LoanDays <= 0 {
		errs = append(errs, errors.New("RENTAL_LOAN_DAYS must be positive"))
	}
	if c.Rental.MaxActivePerUser <= 0 {
		errs = append(errs, errors.New("RENTAL_MAX_ACTIVE_PER_USER must be positive"))
	}
	if c.Rental.PendingTTL <= 0 {
		errs = append(errs, errors.New("RENTAL_PENDING_TTL must be positive"))
	}

	if c.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
	}

	if c.Jobs.RentalExpiryInterval <= 0 {
		errs = append(errs, errors.New("RENTAL_EXPIRY_INTERVAL must be positive"))
	}
	if _, err := cron.ParseStandard(c.Jobs.TokenCleanupSchedule); err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_CLEANUP_SCHEDULE is not a valid cron expression: %w", err))
	}

	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
