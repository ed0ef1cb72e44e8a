// Package config provides configuration helpers for go-sitsense commands.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// Default backend configuration.
const (
	DefaultBaseURL       = "http://localhost:8000"
	DefaultDashboardPort = "8090"
)

// BaseURL returns the backend base URL from API_BASE_URL env var.
// Falls back to the provided default if not set.
func BaseURL(defaultURL string) string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return defaultURL
}

// APIKeyRequired returns the backend API key from API_KEY env var.
// Exits if not set.
func APIKeyRequired() string {
	key := os.Getenv("API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: API_KEY=... DEVICE_ID=... go run ./cmd/sitsense")
		os.Exit(1)
	}
	return key
}

// APIKey returns the backend API key from API_KEY env var, or "" if unset.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// DeviceID returns the device ID from DEVICE_ID env var.
// Generates a random one if not set, so a fresh device can always boot.
func DeviceID() string {
	if id := os.Getenv("DEVICE_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// LogLevel returns the log level from LOG_LEVEL env var or default.
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// TelemetryDisabled reports whether outbound telemetry is disabled
// via the DISABLE_TELEMETRY env var.
func TelemetryDisabled() bool {
	switch os.Getenv("DISABLE_TELEMETRY") {
	case "1", "true", "yes":
		return true
	}
	return false
}
