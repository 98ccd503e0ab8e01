package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 1000, cfg.Serving.MaxBatchSize)
	assert.Equal(t, 100, cfg.Serving.MaxServeFeatures)
	assert.Equal(t, 1000, cfg.Serving.MaxServeEntities)
	assert.Equal(t, 50, cfg.Serving.DefaultPageSize)
	assert.Equal(t, StorageDriverPostgres, cfg.App.StorageDriver)
	assert.Equal(t, "logs/access.log", cfg.App.AccessLogFilePath)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FEATURE_BATCH_SIZE", "10")
	t.Setenv("SERVE_TIMEOUT", "750ms")
	t.Setenv("FEATURE_CACHE_TTL", "120")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 10, cfg.Serving.MaxBatchSize)
	assert.Equal(t, 750*time.Millisecond, cfg.Serving.ServeTimeout)
	assert.Equal(t, 120*time.Second, cfg.Cache.FeatureTTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, StorageDriverMemory, cfg.App.StorageDriver)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")

	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.True(t, getEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_DURATION", time.Second))
}
