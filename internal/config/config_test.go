package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvFile(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "STORAGE_DRIVER", "DB_LOCK_TIMEOUT", "RECONCILE_CRON", "APP_ENV"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DATABASE_URL=postgres://farm@localhost/farmops\n"+
			"JWT_SECRET=dev-secret\n"+
			"DB_LOCK_TIMEOUT=2s\n"+
			"RECONCILE_CRON=0 * * * *\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.App.StorageDriver)
	assert.Equal(t, "postgres://farm@localhost/farmops", cfg.Database.URL)
	assert.Equal(t, 2*time.Second, cfg.Database.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "0 * * * *", cfg.Worker.ReconcileCron)
	assert.Equal(t, "@hourly", cfg.Worker.IdempotencyCleanupCron)
	assert.False(t, cfg.Redis.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:    AppConfig{Env: "production", StorageDriver: DriverMemory},
			HTTP:   HTTPConfig{Port: "8080"},
			Auth:   AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef"},
			Worker: WorkerConfig{ReconcileConcurrency: 4, Timezone: "UTC"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"postgres without url", func(c *Config) { c.App.StorageDriver = DriverPostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.App.StorageDriver = "mongo" }, "STORAGE_DRIVER"},
		{"short secret in production", func(c *Config) { c.Auth.JWTSecret = "short" }, "at least 32 bytes"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"bad timezone", func(c *Config) { c.Worker.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"zero concurrency", func(c *Config) { c.Worker.ReconcileConcurrency = 0 }, "RECONCILE_CONCURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	dev := valid()
	dev.App.Env = "development"
	dev.Auth.JWTSecret = "short"
	assert.NoError(t, dev.Validate())
}
