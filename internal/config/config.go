// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Default session inactivity limit: four weeks in seconds.
const defaultSessionMaxInactivity = 60 * 60 * 24 * 7 * 4

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Strava  *StravaConfig // nil when the integration is not configured

	DatabaseURL string
	StaticDir   string
	Hostnames   []string
	Debug       bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address string
	Port    string
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	// MaxInactivitySeconds is the sliding-expiry window: a session is
	// rejected once now - last_used_at exceeds it.
	MaxInactivitySeconds int64
}

// StravaConfig holds the Strava OAuth application credentials.
type StravaConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectOrigin string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Address: getEnv("BIKE_ADDRESS", "0.0.0.0"),
			Port:    getEnv("BIKE_PORT", "8080"),
		},
		Session: SessionConfig{
			MaxInactivitySeconds: getInt64Env("BIKE_SESSION_MAX_INACTIVITY", defaultSessionMaxInactivity),
		},
		Strava:      loadStrava(),
		DatabaseURL: getEnv("DATABASE_URL", "./data.db"),
		StaticDir:   getEnv("BIKE_STATIC_DIR", "./static"),
		Hostnames:   getListEnv("BIKE_HOSTNAMES"),
		Debug:       getBoolEnv("BIKE_DEBUG", false),
	}
}

// loadStrava returns nil unless all three settings are present; the Strava
// feature is inert when any is absent.
func loadStrava() *StravaConfig {
	cfg := StravaConfig{
		ClientID:       os.Getenv("BIKE_STRAVA_CLIENT_ID"),
		ClientSecret:   os.Getenv("BIKE_STRAVA_CLIENT_SECRET"),
		RedirectOrigin: os.Getenv("BIKE_STRAVA_REDIRECT_ORIGIN"),
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectOrigin == "" {
		return nil
	}
	return &cfg
}

// ListenAddr returns the host:port the server binds to.
func (c *Config) ListenAddr() string {
	return c.Server.Address + ":" + c.Server.Port
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt64Env returns an integer from an environment variable or default.
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

// getBoolEnv returns a boolean from an environment variable or default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv returns a comma-separated list from an environment variable.
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
