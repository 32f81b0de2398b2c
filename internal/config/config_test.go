package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis.internal:6380")
	path := writeConfig(t, `
server:
  port: 9090
storage:
  driver: redis
redis:
  addr: ${TEST_REDIS_ADDR}
session:
  ttl: 2h
rules:
  weekly_goal_kg: 12.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 12.5, cfg.Rules.WeeklyGoalKg)
	assert.Equal(t, 6, cfg.Rules.MinPasswordLength)
	assert.Equal(t, "waste-weighins", cfg.Kafka.Topic)
	assert.Equal(t, 50, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidDriver(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: etcd\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid storage driver")
}

func TestLoad_SyncNeedsPostgres(t *testing.T) {
	path := writeConfig(t, "sync:\n  enabled: true\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "sync requires postgres")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Leaderboard.Seed)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Sync.Enabled)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "DEBUG"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{}.SlogLevel())
}
