package config

// DefaultAuthBase is the default auth collaborator endpoint.
const DefaultAuthBase = "http://localhost:3000/api/auth"

// DefaultDriveBase is the default cloud storage API endpoint.
const DefaultDriveBase = "https://www.googleapis.com/drive/v3"

// DefaultSnapID is the default snap package identifier.
const DefaultSnapID = "npm:@hivebridge/wallet-snap"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.hivebridge",
		Endpoints: EndpointsConfig{
			AuthBase:  DefaultAuthBase,
			DriveBase: DefaultDriveBase,
		},
		Snap: SnapConfig{
			ID:      DefaultSnapID,
			Version: ">=1.0.0",
		},
		Connect: ConnectConfig{
			AvailabilityIntervalSeconds: 30,
			ConnectTimeoutSeconds:       120,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.hivebridge/hivebridge.log",
		},
	}
}
