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

var keys = []string{
	"PORT", "DB_PATH", "LOG_LEVEL", "JWT_SECRET", "SESSION_TTL", "COOKIE_SECURE",
	"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_CALLBACK_URL",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_NAME",
}

// clearEnv blanks every key Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/devrel.db", cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SecureCookies)
	assert.False(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Empty(t, cfg.Admin.Email)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"PORT=9090\n"+
			"JWT_SECRET=from-the-env-file-123\n"+
			"LOG_LEVEL=debug\n"+
			"GITHUB_CLIENT_ID=id\n"+
			"GITHUB_CLIENT_SECRET=secret\n"+
			"ADMIN_EMAIL=root@example.com\n"),
		0o600))

	// A real environment variable beats the file.
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "from-the-env-file-123", cfg.JWTSecret)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.True(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:9090/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, "root@example.com", cfg.Admin.Email)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad port", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad ttl", map[string]string{"SESSION_TTL": "a day"}},
		{"negative ttl", map[string]string{"SESSION_TTL": "-1h"}},
		{"bad cookie flag", map[string]string{"COOKIE_SECURE": "sometimes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, ok := tt.env["JWT_SECRET"]; !ok && tt.name != "missing secret" {
				t.Setenv("JWT_SECRET", "0123456789abcdef")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadStore_NoSecretRequired(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_PATH=/tmp/seeded.db\nLOG_LEVEL=warn\n"), 0o600))

	sc, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/seeded.db", sc.DBPath)
	assert.Equal(t, slog.LevelWarn, sc.LogLevel)

	t.Setenv("LOG_LEVEL", "loud")
	_, err = LoadStore(path)
	assert.Error(t, err)
}
