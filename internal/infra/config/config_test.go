package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elaview/internal/domain/availability"
)

var keys = []string{
	"APP_ENV", "HTTP_ADDR", "STORAGE_DRIVER", "MONGO_URI", "MONGO_DB", "DATABASE_URL",
	"KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "OUTBOX_POLL_INTERVAL", "RETRY_BACKOFF", "IDEMP_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "AUTOSAVE_TTL", "SESSION_TTL",
	"AVAILABILITY_LOAD_POLICY", "AVAILABILITY_LOAD_TIMEOUT", "S3_ENDPOINT", "S3_PUBLIC_ENDPOINT",
	"S3_USE_SSL", "FIXTURES_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, availability.PolicyFailOpen, cfg.AvailabilityLoadPolicy)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/elaview")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("AVAILABILITY_LOAD_POLICY", "FAIL_CLOSED")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("S3_USE_SSL", "yes")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, availability.PolicyFailClosed, cfg.AvailabilityLoadPolicy)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.S3UseSSL)
	assert.Equal(t, "http://minio:9000", cfg.S3PublicEndpoint)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{name: "mongo without uri", env: map[string]string{"STORAGE_DRIVER": "mongo"}},
		{name: "postgres without url", env: map[string]string{"STORAGE_DRIVER": "postgres"}},
		{name: "bad duration", env: map[string]string{"SESSION_TTL": "soon"}},
		{name: "bad backoff", env: map[string]string{"RETRY_BACKOFF": "1s,later"}},
		{name: "bad policy", env: map[string]string{"AVAILABILITY_LOAD_POLICY": "maybe"}},
		{name: "bad bool", env: map[string]string{"S3_USE_SSL": "perhaps"}},
		{name: "bad int", env: map[string]string{"REDIS_DB": "one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("FIXTURES_PATH=fixtures/demo.json\n"), 0o600))
	// godotenv only fills unset variables.
	require.NoError(t, os.Unsetenv("FIXTURES_PATH"))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "fixtures/demo.json", cfg.FixturesPath)
}
