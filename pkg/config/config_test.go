package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Search.CandidateLimit)
	assert.Equal(t, 2*time.Second, cfg.Postgres.PollInterval)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: mongo
mongo:
  database: social_test
redis:
  host: cache
search:
  cache_ttl: 1m
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, "social_test", cfg.Mongo.Database)
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}
