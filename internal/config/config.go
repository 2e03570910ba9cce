// Package config loads runtime configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	App         AppConfig
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Idempotency IdempotencyConfig
	Worker      WorkerConfig
}

// AppConfig holds process-wide options.
type AppConfig struct {
	Env      string
	LogLevel string
	// StorageDriver is postgres or memory.
	StorageDriver string
}

// Development reports whether the app runs in development mode.
func (a AppConfig) Development() bool {
	return a.Env == "development"
}

// HTTPConfig holds HTTP server related options.
type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
	LockTimeout      time.Duration
}

// RedisConfig holds settings for the catalog cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// IdempotencyConfig controls the X-Idempotency-Key middleware.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// WorkerConfig holds scheduler settings.
type WorkerConfig struct {
	ReconcileCron          string
	IdempotencyCleanupCron string
	ReconcileConcurrency   int
	Timezone               string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		App: AppConfig{
			Env:           getenvWithDefault("APP_ENV", "development"),
			LogLevel:      getenvWithDefault("LOG_LEVEL", "info"),
			StorageDriver: strings.ToLower(getenvWithDefault("STORAGE_DRIVER", DriverPostgres)),
		},
		HTTP: HTTPConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:              os.Getenv("DATABASE_URL"),
			MaxConns:         int32(getInt("DB_MAX_CONNS", 20)),
			MinConns:         int32(getInt("DB_MIN_CONNS", 2)),
			StatementTimeout: getDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
			LockTimeout:      getDuration("DB_LOCK_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			TTL:      getDuration("REDIS_CATALOG_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  getDuration("JWT_TTL", 12*time.Hour),
		},
		Idempotency: IdempotencyConfig{
			Enabled: getBool("IDEMPOTENCY_ENABLED", true),
			TTL:     getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Worker: WorkerConfig{
			ReconcileCron:          getenvWithDefault("RECONCILE_CRON", "*/15 * * * *"),
			IdempotencyCleanupCron: getenvWithDefault("IDEMPOTENCY_CLEANUP_CRON", "@hourly"),
			ReconcileConcurrency:   getInt("RECONCILE_CONCURRENCY", 4),
			Timezone:               getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch c.App.StorageDriver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL must be provided")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.App.StorageDriver)
	}

	if c.HTTP.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if len(c.Auth.JWTSecret) < 32 && !c.App.Development() {
		return errors.New("JWT_SECRET must be at least 32 bytes outside development")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.Worker.ReconcileConcurrency <= 0 {
		return errors.New("RECONCILE_CONCURRENCY must be positive")
	}
	if _, err := time.LoadLocation(c.Worker.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
