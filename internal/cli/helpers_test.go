package cli

import (
	"bytes"
	"testing"

	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/internal/site"
	"github.com/valter-silva-au/sitekit/internal/storage"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// setTestLogger installs a debug-level logger, analytics and default config
// as the package services for the duration of the test. Exports land in a
// temporary directory.
func setTestLogger(t *testing.T) diaglog.Logger {
	t.Helper()

	origLogger, origAnalytics, origConfig := Logger, Analytics, Config
	t.Cleanup(func() {
		Logger, Analytics, Config = origLogger, origAnalytics, origConfig
	})

	cfg := models.DefaultConfig()
	cfg.Logger.Level = "debug"
	logger, err := diaglog.NewLogger(cfg.Logger, diaglog.Host{
		Store:      storage.NewMemoryStore(0),
		Console:    &bytes.Buffer{},
		Downloader: storage.NewDirDownloader(t.TempDir()),
	})
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}

	Logger = logger
	Analytics = site.NewAnalytics(logger, 0)
	Config = cfg
	return logger
}
