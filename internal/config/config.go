package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Square environments
const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Square   SquareConfig
	Terminal TerminalConfig
	Auth     AuthConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string `env:"PORT" validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string `env:"DB_HOST" validate:"required"`
	Port            string
	User            string
	Password        string
	DBName          string `env:"DB_NAME" validate:"required"`
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// SquareConfig holds payment gateway credentials and transport settings.
type SquareConfig struct {
	Environment         string `env:"SQUARE_ENVIRONMENT" validate:"required,oneof=sandbox production"`
	AppID               string `env:"SQUARE_APP_ID" validate:"required"`
	LocationID          string `env:"SQUARE_LOCATION_ID" validate:"required"`
	AccessToken         string `env:"SQUARE_ACCESS_TOKEN" validate:"required"`
	WebhookSignatureKey string `env:"SQUARE_WEBHOOK_SIGNATURE_KEY" validate:"required"`
	WebhookURL          string `env:"SQUARE_WEBHOOK_URL" validate:"required,url"`
	APIVersion          string `env:"SQUARE_API_VERSION" validate:"required"`
	BaseURLOverride     string `env:"SQUARE_BASE_URL" validate:"omitempty,url"`
	RequestTimeout      time.Duration
	RateLimitRPS        float64
	TransportRetries    int
}

// TerminalConfig holds checkout polling bounds
type TerminalConfig struct {
	PollInterval    time.Duration
	PollMaxAttempts int
}

// AuthConfig holds the shared secret used to verify staff session tokens.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" validate:"required"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	TrustedProxies      []string `env:"TRUSTED_PROXIES" validate:"dive,cidr"`
	IdempotencyTTL      time.Duration
	ClientRatePerMinute int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// BaseURL returns the gateway API root for the configured environment, or
// the override when one is set.
func (c SquareConfig) BaseURL() string {
	if c.BaseURLOverride != "" {
		return c.BaseURLOverride
	}
	if c.Environment == EnvironmentProduction {
		return "https://connect.squareup.com"
	}
	return "https://connect.squareupsandbox.com"
}

// Load loads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "6m"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "shampooches"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Square: SquareConfig{
			Environment:         getEnv("SQUARE_ENVIRONMENT", EnvironmentSandbox),
			AppID:               os.Getenv("SQUARE_APP_ID"),
			LocationID:          os.Getenv("SQUARE_LOCATION_ID"),
			AccessToken:         os.Getenv("SQUARE_ACCESS_TOKEN"),
			WebhookSignatureKey: os.Getenv("SQUARE_WEBHOOK_SIGNATURE_KEY"),
			WebhookURL:          os.Getenv("SQUARE_WEBHOOK_URL"),
			APIVersion:          getEnv("SQUARE_API_VERSION", "2024-10-23"),
			BaseURLOverride:     os.Getenv("SQUARE_BASE_URL"),
			RequestTimeout:      getEnvAsDuration("SQUARE_REQUEST_TIMEOUT", "15s"),
			RateLimitRPS:        getEnvAsFloat("SQUARE_RATE_LIMIT_RPS", 10),
			TransportRetries:    getEnvAsInt("GATEWAY_TRANSPORT_RETRIES", 2),
		},
		Terminal: TerminalConfig{
			PollInterval:    getEnvAsDuration("TERMINAL_POLL_INTERVAL", "5s"),
			PollMaxAttempts: getEnvAsInt("TERMINAL_POLL_MAX_ATTEMPTS", 60),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		},
		App: AppConfig{
			IdempotencyTTL:      getEnvAsDuration("IDEMPOTENCY_TTL", "24h"),
			ClientRatePerMinute: getEnvAsInt("CLIENT_RATE_PER_MINUTE", 120),
			TrustedProxies:      getEnvAsList("TRUSTED_PROXIES"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate reports every invalid or missing value, not just the first one.
func (c *Config) Validate() error {
	var errs []error

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	if c.Square.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("square request timeout must be positive"))
	}
	if c.Square.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("square rate limit must be positive, got %f", c.Square.RateLimitRPS))
	}
	if c.Square.TransportRetries < 0 {
		errs = append(errs, fmt.Errorf("transport retries cannot be negative"))
	}
	if c.Terminal.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("terminal poll interval must be positive"))
	}
	if c.Terminal.PollMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("terminal poll max attempts must be positive, got %d", c.Terminal.PollMaxAttempts))
	}

	if c.App.ClientRatePerMinute <= 0 {
		errs = append(errs, fmt.Errorf("client rate per minute must be positive, got %d", c.App.ClientRatePerMinute))
	}
	if c.App.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Errorf("idempotency ttl must be positive"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level))
	}

	return errors.Join(errs...)
}

func describeFieldError(fe validator.FieldError) error {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("missing %s", name)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "url":
		return fmt.Errorf("%s must be an absolute URL, got %q", name, fe.Value())
	case "cidr":
		return fmt.Errorf("%s must be a CIDR block, got %q", name, fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation", name, fe.Tag())
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
