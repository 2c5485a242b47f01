// Package internal provides the App struct that wires all components of
// sitekit together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/valter-silva-au/sitekit/internal/cli"
	"github.com/valter-silva-au/sitekit/internal/core"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/internal/observability"
	"github.com/valter-silva-au/sitekit/internal/site"
	"github.com/valter-silva-au/sitekit/internal/storage"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// BaseEnvVar names the environment variable that overrides the base path.
const BaseEnvVar = "SITEKIT_HOME"

// App holds all service dependencies for sitekit.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Storage layer
	Store      storage.KeyValueStore
	Downloader storage.Downloader

	// Diagnostics
	Logger    diaglog.Logger
	Analytics *site.Analytics

	// History; nil when history is disabled or cannot be opened.
	EntryLog  observability.EntryLog
	StatsCalc observability.StatsCalculator
}

// NewApp creates and wires all components of sitekit. basePath is the
// directory holding .sitekit and the relative storage and history paths.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, loadErr := app.ConfigMgr.LoadConfig()
	if loadErr != nil {
		// Reported through the logger once it exists.
		cfg = models.DefaultConfig()
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", app.ConfigMgr.ConfigPath(), err)
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Store = storage.NewFileStore(resolvePath(basePath, cfg.Storage.Dir), cfg.Storage.QuotaBytes)
	app.Downloader = storage.NewDirDownloader(".")

	// --- History ---
	var historyErr error
	if cfg.History.Enabled {
		historyCfg := cfg.History
		historyCfg.Path = resolvePath(basePath, historyCfg.Path)
		app.EntryLog, historyErr = observability.NewJSONLEntryLog(historyCfg)
		if historyErr != nil {
			// Non-fatal: disable history if the file can't be opened.
			app.EntryLog = nil
		}
	}
	var sinks []diaglog.Sink
	if app.EntryLog != nil {
		sinks = append(sinks, app.EntryLog)
		app.StatsCalc = observability.NewStatsCalculator(app.EntryLog)
	}

	// --- Logger ---
	logger, err := diaglog.NewLogger(cfg.Logger, diaglog.Host{
		Store:      app.Store,
		Console:    os.Stderr,
		Env:        diaglog.StaticEnvironment{Agent: userAgent(), URL: cfg.Site.URL},
		Downloader: app.Downloader,
		Sinks:      sinks,
	})
	if err != nil {
		return nil, err
	}
	app.Logger = logger

	if loadErr != nil {
		logger.Warn("Configuration unreadable, using defaults", map[string]any{"error": loadErr.Error()})
	}
	if historyErr != nil {
		logger.Warn("History disabled", map[string]any{"error": historyErr.Error()})
	}
	if cfg.Logger.Storage {
		if err := logger.Restore(); err != nil {
			logger.Warn("Persisted logs could not be restored", map[string]any{"error": err.Error()})
		}
	}

	app.Analytics = site.NewAnalytics(logger, cfg.Site.ScrollSampleHz)

	// --- Wire CLI ---
	cli.Logger = app.Logger
	cli.Analytics = app.Analytics
	cli.ConfigMgr = app.ConfigMgr
	cli.Config = app.Config
	cli.EntryLog = app.EntryLog
	cli.StatsCalc = app.StatsCalc

	return app, nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	if a.EntryLog != nil {
		return a.EntryLog.Close()
	}
	return nil
}

// userAgent identifies this build in recorded entries.
func userAgent() string {
	return fmt.Sprintf("sitekit/%s (%s; %s)", cli.Version(), runtime.GOOS, runtime.GOARCH)
}

// resolvePath joins relative configuration paths onto basePath.
func resolvePath(basePath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// ResolveBasePath determines the base directory: SITEKIT_HOME if set,
// otherwise the nearest directory at or above the working directory that
// contains .sitekit, otherwise the working directory.
func ResolveBasePath() string {
	if home := os.Getenv(BaseEnvVar); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	// Walk up to find a directory containing .sitekit.
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}
