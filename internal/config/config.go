// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all configuration values for the sync daemon.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP facade listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// CachePath is the SQLite file backing the local snapshot cache.
	// Defaults to "tripsync.db". Set to ":memory:" for an ephemeral cache.
	CachePath string

	// AuthURL is the base URL of the auth gateway used for device-gate
	// and credential login. Required.
	AuthURL string

	// DeviceID identifies this installation to the auth gateway.
	// Defaults to the hostname.
	DeviceID string

	// Username and Password are the credentials the daemon logs in with.
	// Both required.
	Username string
	Password string

	// DeviceToken is the token issued when this device passed the family
	// gate. When empty, GateCode must be set so the daemon can pass the
	// gate itself on first start.
	DeviceToken string

	// GateCode is the one-time family gate code. Only consulted when
	// DeviceToken is empty.
	GateCode string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		CachePath:   getEnv("CACHE_PATH", "tripsync.db"),
		DeviceID:    getEnv("DEVICE_ID", defaultDeviceID()),
		DeviceToken: os.Getenv("DEVICE_TOKEN"),
		GateCode:    os.Getenv("GATE_CODE"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.AuthURL = os.Getenv("AUTH_URL")
	if cfg.AuthURL == "" {
		missing = append(missing, "AUTH_URL")
	}

	cfg.Username = os.Getenv("TRIPSYNC_USERNAME")
	if cfg.Username == "" {
		missing = append(missing, "TRIPSYNC_USERNAME")
	}

	cfg.Password = os.Getenv("TRIPSYNC_PASSWORD")
	if cfg.Password == "" {
		missing = append(missing, "TRIPSYNC_PASSWORD")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func defaultDeviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "tripsync"
	}
	return host
}
