package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DATABASE_PATH", "STORAGE_KEY", "JWT_SECRET", "LOG_LEVEL", "LOG_PRETTY", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.True(t, cfg.UsesDefaultSecret())
}

func TestLoadConfigLayers(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "smartcalendar.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
port = "8080"
database_path = "data/cal.db"
log_level = "debug"
allowed_origins = ["http://localhost:3000"]
`), 0o644))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(`
# local overrides
JWT_SECRET="from-env-file"
PORT=9000
`), 0o644))

	t.Setenv("PORT", "9100")

	cfg, err := LoadConfig(tomlPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port, "process env wins over .env and toml")
	assert.Equal(t, "data/cal.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-env-file", cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.UsesDefaultSecret())
}

func TestLoadConfigRejectsBadToml(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = "), 0o644))

	_, err := LoadConfig(path, "")
	assert.Error(t, err)
}

func TestLoadConfigOriginsFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := LoadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.LogPretty)
}
