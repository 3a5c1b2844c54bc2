package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "SESSION_DRIVER", "PAGE_SIZE", "ENABLE_LOCAL_AUTH", "SESSION_TTL_SEC"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "memory", cfg.SessionDriver)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.EnableLocalAuth)
	assert.Equal(t, cfg.CORSOriginsOffline, cfg.CORSOrigins())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("ENABLE_LOCAL_AUTH", "yes")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.Equal(t, "production", cfg.LogMode)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.EnableLocalAuth)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9999\nQUIZ_TEST_ONLY_KEY=from-file\n"), 0o600))
	t.Setenv("HTTP_ADDR", ":7000")
	t.Cleanup(func() { os.Unsetenv("QUIZ_TEST_ONLY_KEY") })

	cfg := Load(path)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "from-file", os.Getenv("QUIZ_TEST_ONLY_KEY"))
}
