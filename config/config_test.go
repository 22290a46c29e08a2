package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "STORAGE_DRIVER", "DATABASE_URL", "DB_HOST", "DB_USER", "CATALOG_BASE_URL", "HTTP_PORT", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"STORAGE_DRIVER":   "memory",
		"CATALOG_BASE_URL": "https://catalog.example.com/",
	})

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "https://catalog.example.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.Equal(t, 5.0, cfg.Catalog.RateLimit)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.Observability.MetricsEnabled)
}

func TestFromEnv_BuildsDatabaseURLFromParts(t *testing.T) {
	setEnv(t, map[string]string{
		"CATALOG_BASE_URL": "http://localhost:9000",
		"DB_HOST":          "db",
		"DB_USER":          "learner",
		"DB_PASSWORD":      "p@ss",
		"DB_NAME":          "tracker",
	})

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://learner:p%40ss@db:5432/tracker?sslmode=disable", cfg.Database.URL)
}

func TestFromEnv_AggregatesErrors(t *testing.T) {
	setEnv(t, map[string]string{
		"STORAGE_DRIVER": "sqlite",
		"HTTP_PORT":      "70000",
		"LOG_FORMAT":     "xml",
	})

	_, err := FromEnv()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "STORAGE_DRIVER")
	assert.Contains(t, msg, "CATALOG_BASE_URL is required")
	assert.Contains(t, msg, "HTTP_PORT")
	assert.Contains(t, msg, "LOG_FORMAT")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	setEnv(t, map[string]string{"CATALOG_BASE_URL": "http://localhost:9000"})

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_MemoryNotInProduction(t *testing.T) {
	setEnv(t, map[string]string{
		"APP_ENV":          "production",
		"STORAGE_DRIVER":   "memory",
		"CATALOG_BASE_URL": "http://localhost:9000",
	})

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed in production")
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	setEnv(t, map[string]string{
		"X_INT":   "ten",
		"X_BOOL":  "maybe",
		"X_DUR":   "soon",
		"X_FLOAT": "fast",
	})

	assert.Equal(t, 3, getEnvInt("X_INT", 3))
	assert.True(t, getEnvBool("X_BOOL", true))
	assert.Equal(t, time.Second, getEnvDuration("X_DUR", time.Second))
	assert.Equal(t, 1.5, getEnvFloat("X_FLOAT", 1.5))
}
