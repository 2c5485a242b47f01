package cli

import (
	"github.com/valter-silva-au/sitekit/internal/core"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/internal/observability"
	"github.com/valter-silva-au/sitekit/internal/site"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Logger    diaglog.Logger
	Analytics *site.Analytics
	ConfigMgr core.ConfigurationManager
	Config    *models.Config
)

// History service instances; nil when the history file is disabled.
var (
	EntryLog  observability.EntryLog
	StatsCalc observability.StatsCalculator
)
