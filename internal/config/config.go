// Package config provides configuration management for HiveBridge.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Snap      SnapConfig      `yaml:"snap"`
	Connect   ConnectConfig   `yaml:"connect"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EndpointsConfig defines remote service endpoints.
type EndpointsConfig struct {
	AuthBase  string `yaml:"auth_base"`
	DriveBase string `yaml:"drive_base"`
}

// SnapConfig identifies the snap provider package.
type SnapConfig struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

// ConnectConfig defines connection orchestration settings.
type ConnectConfig struct {
	AvailabilityIntervalSeconds int `yaml:"availability_interval_seconds"`
	ConnectTimeoutSeconds       int `yaml:"connect_timeout_seconds"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome returns the hivebridge home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// GetAuthBase returns the auth service base URL.
func (c *Config) GetAuthBase() string {
	return c.Endpoints.AuthBase
}

// GetDriveBase returns the cloud storage API base URL.
func (c *Config) GetDriveBase() string {
	return c.Endpoints.DriveBase
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default hivebridge home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hivebridge"
	}
	return filepath.Join(home, ".hivebridge")
}

// ExpandHome expands a leading ~/ to the user home directory.
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
