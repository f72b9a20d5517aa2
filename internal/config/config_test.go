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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
	assert.Equal(t, int64(1), cfg.Auth.DefaultUserID)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 0, cfg.Clicks.Workers)
	assert.Empty(t, cfg.Auth.APIKeys)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_PORT=9000\nBASE_URL=https://go.example.com/\nREDIS_HOST=cache\nAPI_KEYS=k1:3,k2:7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("APP_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, "https://go.example.com", cfg.App.BaseURL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, map[string]int64{"k1": 3, "k2": 7}, cfg.Auth.APIKeys)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"порт не число", "APP_PORT", "http"},
		{"base url без схемы", "BASE_URL", "localhost:8080"},
		{"отрицательные воркеры", "CLICK_WORKERS", "-1"},
		{"битый ключ", "API_KEYS", "key:abc"},
		{"нулевой rps", "RATE_LIMIT_RPS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", c.DSN())
}
