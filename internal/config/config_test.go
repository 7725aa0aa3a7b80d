package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "TRAVELTIME_PROVIDER", "OSRM_TIMEOUT", "CACHE_BACKEND", "MAX_CONCURRENT_SOLVES", "HTTP_WRITE_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderOSRM, cfg.Provider)
	assert.Equal(t, 30*time.Second, cfg.OSRMTimeout)
	assert.Equal(t, CacheNone, cfg.CacheBackend)
	assert.Equal(t, 2, cfg.MaxConcurrentSolves)
	assert.Equal(t, 180*time.Second, cfg.HTTPWriteTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OSRM_TIMEOUT", "5s")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MAX_CONCURRENT_SOLVES", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.OSRMTimeout)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, 4, cfg.MaxConcurrentSolves)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("OSRM_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "OSRM_TIMEOUT")

	t.Setenv("OSRM_TIMEOUT", "")
	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("CACHE_BACKEND", "memcached")
	_, err = Load()
	assert.ErrorContains(t, err, "CACHE_BACKEND")

	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("TRAVELTIME_PROVIDER", "ors")
	t.Setenv("ORS_API_KEY", "")
	_, err = Load()
	assert.ErrorContains(t, err, "ORS_API_KEY")
}
