package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "bytes", cfg.Engine.OffsetUnit)
	assert.Equal(t, 20*time.Millisecond, cfg.StreamPace())
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL())
	assert.True(t, cfg.RateLimit.Enabled)

	opts := cfg.ResolverOptions()
	assert.Empty(t, opts.BackendBaseURL)
	assert.Equal(t, 3*time.Second, opts.LookupTimeout)
	assert.Equal(t, 8, opts.MaxConcurrentLookups)
	assert.Equal(t, "https://www.youtube.com/watch", opts.VideoBaseURL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askcite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
resolver:
  backend_base_url: http://docs.internal/
  lookup_timeout_ms: 500
engine:
  offset_unit: utf16
cache:
  redis_addr: localhost:6379
`), 0644))

	t.Setenv("ASKCITE_RESOLVER_MAX_CONCURRENT_LOOKUPS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "utf16", cfg.Engine.OffsetUnit)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)

	opts := cfg.ResolverOptions()
	assert.Equal(t, "http://docs.internal", opts.BackendBaseURL)
	assert.Equal(t, 500*time.Millisecond, opts.LookupTimeout)
	assert.Equal(t, 3, opts.MaxConcurrentLookups)
}

func TestLoad_InvalidOffsetUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  offset_unit: runes\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
