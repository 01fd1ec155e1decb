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

func withoutEnvFiles(t *testing.T) {
	t.Helper()
	prev := EnvFiles
	EnvFiles = nil
	t.Cleanup(func() { EnvFiles = prev })
}

func TestLoadDefaults(t *testing.T) {
	withoutEnvFiles(t)
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.TextModel)
	assert.Equal(t, 35*time.Second, cfg.PrimaryTimeout)
	assert.Equal(t, 40*time.Second, cfg.BackupTimeout)
	assert.Equal(t, 15, cfg.RateLimit)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, 8080, cfg.Port)
	require.Len(t, cfg.BackupModels, 7)
	assert.Equal(t, "google/gemini-2.0-flash-exp:free", cfg.BackupModels[0])
	assert.Equal(t, "openrouter/auto:free", cfg.BackupModels[6])
	assert.Equal(t, "", cfg.PrimaryKey())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestPrimaryKeyPrecedence(t *testing.T) {
	withoutEnvFiles(t)
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.PrimaryKey())

	t.Setenv("API_KEY", "api")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.PrimaryKey())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(path, []byte("DECREE_TEST_ONLY_VAR=from-file\nLOG_LEVEL=debug\n"), 0644))

	prev := EnvFiles
	EnvFiles = []string{path, filepath.Join(dir, "missing.env")}
	t.Cleanup(func() {
		EnvFiles = prev
		os.Unsetenv("DECREE_TEST_ONLY_VAR")
	})
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("DECREE_TEST_ONLY_VAR"))
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestValidate(t *testing.T) {
	withoutEnvFiles(t)
	t.Setenv("STORE", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE", "Redis")
	t.Setenv("RATE_LIMIT", "0")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("RATE_LIMIT", "20")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store)
}

func TestOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}
