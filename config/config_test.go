package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBackendURL, cfg.Backend.BaseURL)
	assert.Equal(t, 4*time.Second, cfg.ToastTTL())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.False(t, cfg.Redis.Enabled)
	assert.Contains(t, cfg.Branches, "CS")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.Server.Listen)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://backend:9000
  timeout: 2s
server:
  listen: ":9999"
  toast_ttl: 1s
branches: [CS, MATH]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout())
	assert.Equal(t, ":9999", cfg.Server.Listen)
	assert.Equal(t, time.Second, cfg.ToastTTL())
	assert.Equal(t, []string{"CS", "MATH"}, cfg.Branches)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  timeout: soon\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "backend.timeout")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("backend and listen", func(t *testing.T) {
		t.Setenv("ROSTER_BACKEND_URL", "http://api.local")
		t.Setenv("ROSTER_LISTEN", ":7000")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://api.local", cfg.Backend.BaseURL)
		assert.Equal(t, ":7000", cfg.Server.Listen)
	})

	t.Run("REDIS_ADDR enables redis sessions", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("REDIS_DB", "3")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
		assert.Equal(t, 3, cfg.Redis.DB)
	})

	t.Run("bad REDIS_DB is ignored", func(t *testing.T) {
		t.Setenv("REDIS_DB", "eight")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 0, cfg.Redis.DB)
	})
}

func TestValidate_EmptyBranchesFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Branches = nil
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBranches, cfg.Branches)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
