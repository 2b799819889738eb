// Package config loads server configuration from flags, the environment and
// an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // Holds the SQLite file, auth key and search index
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	URL    string // File path for sqlite, connection string for postgres
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	AccessTokenKey       []byte // Set by auth.LoadOrGenerateKey at startup
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	Enabled   bool
	IndexPath string
}

// RateLimitConfig bounds auth and submission traffic per client IP.
type RateLimitConfig struct {
	PerMinute int // 0 disables limiting
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("templatedir", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, auth key and search index")
	dbDriver := fs.String("db-driver", "", "Database driver (sqlite, postgres)")
	dbURL := fs.String("db-url", "", "Database file path or connection string")
	serverPort := fs.String("port", "", "Server port (default: 4000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	searchEnabled := fs.String("search-enabled", "", "Enable the full-text search index (default: true)")
	rateLimit := fs.String("rate-limit", "", "Auth and submit requests per minute per IP (default: 30)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// godotenv never overrides variables that are already set, which keeps
	// real environment variables above the file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getConfigValue(*dbDriver, "DATABASE_DRIVER", "sqlite")),
			URL:    getConfigValue(*dbURL, "DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "4000"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getIntConfigValue(*rateLimit, "RATE_LIMIT_PER_MINUTE", 30),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", &cfg.Auth.AccessTokenDuration},
		{*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", &cfg.Auth.RefreshTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres", "postgresql":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port %q", c.Server.Port)
	}

	if c.Auth.AccessTokenDuration <= 0 || c.Auth.RefreshTokenDuration <= 0 {
		return errors.New("token durations must be positive")
	}

	if c.RateLimit.PerMinute < 0 {
		return errors.New("rate limit cannot be negative")
	}

	return nil
}

// AuthKeyPath is where the access-token signing key is persisted.
func (c *Config) AuthKeyPath() string {
	return filepath.Join(c.App.DataPath, "auth.key")
}

// expandPaths resolves the data directory and the paths derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, ".templatedir"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	if c.Database.Driver == "sqlite" {
		c.Database.URL, err = expandPath(c.Database.URL, filepath.Join(c.App.DataPath, "templatedir.db"))
		if err != nil {
			return fmt.Errorf("invalid database path: %w", err)
		}
	}

	c.Search.IndexPath = filepath.Join(c.App.DataPath, "search")
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
