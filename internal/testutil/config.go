package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/config"
)

// NewConfig returns a validated default configuration in test mode: memory
// stores, metrics enabled, no Kafka.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Server.Mode = "test"
	require.NoError(t, cfg.Validate())
	return cfg
}

// NewSQLiteConfig is NewConfig with snapshots in a SQLite file under
// t.TempDir().
func NewSQLiteConfig(t testing.TB) *config.Config {
	t.Helper()
	cfg := NewConfig(t)
	cfg.Storage.Backend = config.BackendSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "snapshots.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

// NewRedisConfig is NewConfig with sessions and snapshots in the Redis server
// at addr.
func NewRedisConfig(t testing.TB, addr string) *config.Config {
	t.Helper()
	cfg := NewConfig(t)
	cfg.Storage.Backend = config.BackendRedis
	cfg.Storage.Sessions = config.BackendRedis
	cfg.Redis.Addr = addr
	require.NoError(t, cfg.Validate())
	return cfg
}
