package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hivebridge-io/hivebridge/internal/cloud"
	"github.com/hivebridge-io/hivebridge/internal/cloudapi"
	"github.com/hivebridge-io/hivebridge/internal/config"
	"github.com/hivebridge-io/hivebridge/internal/connect"
	"github.com/hivebridge-io/hivebridge/internal/output"
	"github.com/hivebridge-io/hivebridge/internal/prompt"
	"github.com/hivebridge-io/hivebridge/internal/session"
	"github.com/hivebridge-io/hivebridge/internal/settings"
	"github.com/hivebridge-io/hivebridge/internal/store"
)

// AppContext holds the wired service graph for CLI commands. Everything is
// injected; commands never reach for package singletons.
type AppContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter

	Prompts  *prompt.Bridge
	Settings *settings.Store
	API      *cloudapi.Client
	Cloud    *cloud.Provider
	Sessions *session.Registry
	Manager  *connect.Manager
	Watcher  *connect.Watcher
}

// NewAppContext builds the service graph from configuration.
func NewAppContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *AppContext {
	home := config.ExpandHome(cfg.Home)

	kv := store.NewFileStore(filepath.Join(home, "settings.json"))
	settingsStore := settings.NewStore(kv)
	prompts := prompt.NewBridge()

	api := cloudapi.NewClient(&cloudapi.ClientOptions{
		BaseURL:      cfg.Endpoints.AuthBase,
		DriveBaseURL: cfg.Endpoints.DriveBase,
	})

	driveStore := cloud.NewDriveStore(api)
	keyCache := cloud.NewKeyCache(store.NewOSKeyring())
	cloudProvider := cloud.NewProvider(api, driveStore, keyCache, prompts, settingsStore)

	rings := session.NewRingStorage(filepath.Join(home, "rings"))
	sessions := session.NewRegistry(rings, settingsStore, api)

	manager := connect.NewManager(connect.Providers{
		SnapID: cfg.Snap.ID,
		Cloud:  cloudProvider,
	}, settingsStore)

	interval := time.Duration(cfg.Connect.AvailabilityIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	// The CLI has no extension transports; the only kind worth probing is
	// the cloud collaborator.
	watcher := connect.NewWatcher(interval, map[settings.Kind]connect.Probe{
		settings.KindCloud: func(ctx context.Context) bool {
			return api.Status(ctx).Authenticated
		},
	})

	return &AppContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
		Prompts:   prompts,
		Settings:  settingsStore,
		API:       api,
		Cloud:     cloudProvider,
		Sessions:  sessions,
		Manager:   manager,
		Watcher:   watcher,
	}
}

// ConnectTimeout returns the configured connect timeout.
func (a *AppContext) ConnectTimeout() time.Duration {
	secs := a.Config.Connect.ConnectTimeoutSeconds
	if secs <= 0 {
		secs = 120
	}
	return time.Duration(secs) * time.Second
}

// Close releases resources and cancels any in-flight prompts so no caller
// is left suspended.
func (a *AppContext) Close() {
	a.Prompts.CancelAll()
	a.Watcher.Stop()
}
