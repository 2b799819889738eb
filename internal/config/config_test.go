package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development", DataPath: "/data"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "sqlite", URL: "/data/templatedir.db"},
		Server:   ServerConfig{Port: "4000"},
		Auth:     AuthConfig{AccessTokenDuration: time.Minute, RefreshTokenDuration: time.Hour},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Environments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Database(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "postgres"}
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.Database.URL = "postgres://localhost/templatedir?sslmode=disable"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestValidate_Port(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = "http"
	assert.Error(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("ENV", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SEARCH_ENABLED", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("ACCESS_TOKEN_DURATION", "")

	cfg, err := Load([]string{"-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dir, "templatedir.db"), cfg.Database.URL)
	assert.Equal(t, filepath.Join(dir, "search"), cfg.Search.IndexPath)
	assert.Equal(t, filepath.Join(dir, "auth.key"), cfg.AuthKeyPath())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Search.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.PerMinute)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=5000\nLOG_LEVEL=debug\n# comment\nSEARCH_ENABLED=false\n"), 0o600))

	t.Setenv("DATA_PATH", dir)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SERVER_PORT", "")
	// The .env file sets this one; restore the process environment afterwards.
	t.Cleanup(func() { os.Unsetenv("SEARCH_ENABLED") })

	cfg, err := Load([]string{"-env-file", envFile, "-port", "6000"})
	require.NoError(t, err)

	assert.Equal(t, "6000", cfg.Server.Port, "flag beats .env")
	assert.Equal(t, "warn", cfg.Logger.Level, "environment beats .env")
	assert.False(t, cfg.Search.Enabled, ".env beats default")
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	_, err := Load([]string{"-env-file", filepath.Join(dir, "none"), "-access-token-duration", "soon"})
	assert.ErrorContains(t, err, "ACCESS_TOKEN_DURATION")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/td", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "td"), got)

	got, err = expandPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/fallback", got)

	got, err = expandPath("/a/../b", "")
	require.NoError(t, err)
	assert.Equal(t, "/b", got)
}

func TestConfigValueHelpers(t *testing.T) {
	t.Setenv("TD_TEST_BOOL", "YES")
	t.Setenv("TD_TEST_INT", "12")
	t.Setenv("TD_TEST_BAD_INT", "twelve")

	assert.True(t, getBoolConfigValue("", "TD_TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("no", "TD_TEST_BOOL", true))
	assert.Equal(t, 12, getIntConfigValue("", "TD_TEST_INT", 1))
	assert.Equal(t, 1, getIntConfigValue("", "TD_TEST_BAD_INT", 1))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
