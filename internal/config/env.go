package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome                 = "HIVEBRIDGE_HOME"
	EnvAuthBase             = "HIVEBRIDGE_AUTH_BASE"
	EnvDriveBase            = "HIVEBRIDGE_DRIVE_BASE"
	EnvSnapID               = "HIVEBRIDGE_SNAP_ID"
	EnvOutputFormat         = "HIVEBRIDGE_OUTPUT_FORMAT"
	EnvVerbose              = "HIVEBRIDGE_VERBOSE"
	EnvLogLevel             = "HIVEBRIDGE_LOG_LEVEL"
	EnvNoColor              = "NO_COLOR"
	EnvAvailabilityInterval = "HIVEBRIDGE_AVAILABILITY_INTERVAL"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvAuthBase); v != "" {
		cfg.Endpoints.AuthBase = SanitizeURL(v)
	}

	if v := os.Getenv(EnvDriveBase); v != "" {
		cfg.Endpoints.DriveBase = SanitizeURL(v)
	}

	if v := os.Getenv(EnvSnapID); v != "" {
		cfg.Snap.ID = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	// HIVEBRIDGE_AVAILABILITY_INTERVAL sets the provider probe interval in seconds
	if v := os.Getenv(EnvAvailabilityInterval); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Connect.AvailabilityIntervalSeconds = secs
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming
// whitespace. Endpoint overrides often arrive with copy-paste artifacts.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
