package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/datatalk/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfigPath, EnvBackendURL, EnvLogLevel, EnvLogFormat, EnvListen, EnvRedisAddr} {
		t.Setenv(key, "")
	}
}

func TestLoadWritesDefaultConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := NewFileLoader(path).WithEnvFiles().Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultBackendURL, cfg.Backend.BaseURL)
	assert.Equal(t, domain.DefaultQueryPath, cfg.Backend.QueryPath)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.History.Enabled)
	assert.True(t, filepath.IsAbs(cfg.History.Path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(domain.SecureFilePermissions), info.Mode().Perm())
}

func TestLoadHydratesPartialFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: http://api:9000\n"), 0o600))

	cfg, err := NewFileLoader(path).WithEnvFiles().Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://api:9000", cfg.Backend.BaseURL)
	assert.Equal(t, domain.DefaultQueryPath, cfg.Backend.QueryPath)
	assert.Equal(t, domain.DefaultMaxCacheEntries, cfg.Cache.MaxEntries)
	assert.Equal(t, domain.DefaultSessionCookie, cfg.Server.SessionCookie)
	assert.Equal(t, domain.DefaultSessionTTL.String(), cfg.Server.SessionTTL)
	assert.Equal(t, domain.DefaultMaxSessions, cfg.Server.MaxSessions)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o600))

	_, err := NewFileLoader(path).WithEnvFiles().Load(context.Background())
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv(EnvListen, "0.0.0.0:9999")
	t.Setenv(EnvRedisAddr, "redis:6379")

	cfg, err := NewFileLoader(path).WithEnvFiles().Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Listen)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Address)
}

func TestDotEnvFileIsLoaded(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvLogLevel)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATATALK_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(EnvLogLevel) })

	cfg, err := NewFileLoader(filepath.Join(dir, "config.yaml")).WithEnvFiles(envFile).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestPathUsesEnvironment(t *testing.T) {
	clearEnv(t)
	custom := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigPath, custom)

	assert.Equal(t, custom, NewFileLoader("").Path())
	assert.Equal(t, "/etc/datatalk.yaml", NewFileLoader("/etc/datatalk.yaml").Path())
}
