package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, CacheBackendFilesystem, cfg.Cache.Backend)
	require.Equal(t, "mathschool", cfg.Cache.KeyPrefix)
	require.Equal(t, 6379, cfg.Cache.Redis.Port)
	require.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	require.Equal(t, 1, cfg.Sync.Workers)
	require.Equal(t, 3, cfg.Sync.MaxRetries)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CACHE_BACKEND", CacheBackendSQLite)
	t.Setenv("REMOTE_TIMEOUT", "250ms")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	require.Equal(t, 250*time.Millisecond, cfg.Remote.Timeout)
	require.Equal(t, "console", cfg.Log.Format)
}

func TestParseDurationFallsBack(t *testing.T) {
	require.Equal(t, time.Minute, parseDuration("", time.Minute))
	require.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	require.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	require.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
