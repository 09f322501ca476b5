// ABOUTME: Environment-driven service configuration with XDG data defaults
// ABOUTME: Reads an optional .env file before consulting the environment
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName is the application name for XDG data paths.
	AppName = "intercomconnector"

	// Version is reported by the connector config and status endpoints.
	Version = "1.2.0"

	defaultPort = 3700
)

// Config holds the runtime settings of the connector service.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// PublicHost is the externally visible host:port, used when building
	// links back to this service (conversation image URLs).
	PublicHost string

	// Environment is "production" or "development". Token authentication
	// is only advertised in development.
	Environment string

	// LogLevel controls slog verbosity: debug, info, warn or error.
	LogLevel slog.Level

	// OAuthClientID and OAuthClientSecret identify the Intercom OAuth app.
	// The secret also signs relayed webhook deliveries.
	OAuthClientID     string
	OAuthClientSecret string

	// DBPath is the SQLite database location.
	DBPath string

	// CachePath is the Badger cache directory.
	CachePath string

	// MaxConcurrentWebhooks bounds simultaneous webhook deliveries.
	MaxConcurrentWebhooks int
}

// Load reads configuration from a .env file (if present) and the
// environment, falling back to defaults.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  defaultPort,
		PublicHost:            envOr("ENV_HOST", fmt.Sprintf("127.0.0.1:%d", defaultPort)),
		Environment:           envOr("ENV", "production"),
		LogLevel:              slog.LevelInfo,
		OAuthClientID:         os.Getenv("ENV_OAUTH_CLIENT_ID"),
		OAuthClientSecret:     os.Getenv("ENV_OAUTH_CLIENT_SECRET"),
		DBPath:                envOr("DB_PATH", filepath.Join(xdg.DataHome, AppName, "connector.db")),
		CachePath:             envOr("CACHE_PATH", filepath.Join(xdg.DataHome, AppName, "cache")),
		MaxConcurrentWebhooks: 40,
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PORT: %w", err)
		}
		cfg.Port = port
		if os.Getenv("ENV_HOST") == "" {
			cfg.PublicHost = fmt.Sprintf("127.0.0.1:%d", port)
		}
	}

	if raw := os.Getenv("MAX_CONCURRENT_WEBHOOKS"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MAX_CONCURRENT_WEBHOOKS: %w", err)
		}
		cfg.MaxConcurrentWebhooks = limit
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("failed to parse LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PublicURL is the base URL other systems use to reach this service.
func (c *Config) PublicURL() string {
	return "http://" + c.PublicHost
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
