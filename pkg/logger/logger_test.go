package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/mathschool/sync-core/pkg/config"
)

func zapLevel(t *testing.T, s string) zapcore.Level {
	t.Helper()
	var l zapcore.Level
	require.NoError(t, l.UnmarshalText([]byte(s)))
	return l
}

func TestNewBuildsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Env: config.EnvProduction,
		Log: config.LogConfig{Level: "warn", Format: "json"},
	}
	l, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, l)
	require.False(t, l.Core().Enabled(zapLevel(t, "info")))
	require.True(t, l.Core().Enabled(zapLevel(t, "error")))
}

func TestNewToleratesBadLevel(t *testing.T) {
	cfg := &config.Config{
		Env: config.EnvDevelopment,
		Log: config.LogConfig{Level: "shouting", Format: "console"},
	}
	l, err := New(cfg)
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapLevel(t, "info")))
}
