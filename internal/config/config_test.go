package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/linknest/internal/config"
)

var envVars = []string{
	"LINKNEST_CONFIG", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "GEMINI_TIMEOUT",
	"LINKNEST_BATCH_LIMIT", "LINKNEST_WINDOW", "LINKNEST_MAX_RETRIES", "LINKNEST_RATE_LIMIT_RPS",
	"LINKNEST_CACHE_PATH", "LINKNEST_CACHE_TTL", "GITHUB_TOKEN", "LINKNEST_USER_AGENT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.Model)
	assert.Equal(t, 10, cfg.BatchLimit)
	assert.Equal(t, 5, cfg.Window)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "linknest.yaml", `
gemini:
  model: gemini-2.5-pro
  timeout: 45s
batch_limit: 20
max_retries: 0
cache:
  path: /tmp/cache.db
  ttl: 1h
`)
	t.Setenv("LINKNEST_WINDOW", "3")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 45*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, 20, cfg.BatchLimit)
	assert.Equal(t, 3, cfg.Window)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, "/tmp/cache.db", cfg.CachePath)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestLoad_TOMLFromEnvPath(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "linknest.toml", `
batch_limit = 7
rate_limit_rps = 2.5
user_agent = "linknest-test"

[gemini]
base_url = "http://localhost:9999"
`)
	t.Setenv("LINKNEST_CONFIG", p)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.BatchLimit)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, "linknest-test", cfg.UserAgent)
	assert.Equal(t, "http://localhost:9999", cfg.Gemini.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad env int", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LINKNEST_BATCH_LIMIT", "ten")
		_, err := config.Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LINKNEST_BATCH_LIMIT")
	})
	t.Run("non-positive limit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LINKNEST_WINDOW", "0")
		_, err := config.Load("")
		require.Error(t, err)
	})
	t.Run("unknown extension", func(t *testing.T) {
		clearEnv(t)
		_, err := config.Load(writeFile(t, "linknest.json", "{}"))
		require.Error(t, err)
	})
	t.Run("bad duration in file", func(t *testing.T) {
		clearEnv(t)
		_, err := config.Load(writeFile(t, "c.yaml", "cache:\n  ttl: soon\n"))
		require.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
