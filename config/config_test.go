package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("REMINDER_INTERVAL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, "clinic-data.json", cfg.DataFile)
	assert.Equal(t, "clinic_events", cfg.KafkaTopic)
	assert.Equal(t, "patients", cfg.PatientIndex)
	assert.Equal(t, 5*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDev())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "clinic")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "clinic")
	t.Setenv("REMINDER_INTERVAL", "90s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.Equal(t, 90*time.Second, cfg.ReminderInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "host=db user=clinic password=secret dbname=clinic port=5432 sslmode=disable", cfg.DSN())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{StorageBackend: BackendMemory, ReminderInterval: time.Minute}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"memory", func(*Config) {}, true},
		{"unknown backend", func(c *Config) { c.StorageBackend = "mongo" }, false},
		{"postgres without host", func(c *Config) { c.StorageBackend = BackendPostgres }, false},
		{"redis without host", func(c *Config) { c.StorageBackend = BackendRedis }, false},
		{"redis", func(c *Config) { c.StorageBackend = BackendRedis; c.RedisHost = "redis:6379" }, true},
		{"zero interval", func(c *Config) { c.ReminderInterval = 0 }, false},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
