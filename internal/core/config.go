// Package core contains the configuration layer for sitekit: loading,
// validating and initializing the .sitekit file.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/sitekit/pkg/models"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the YAML configuration file looked up in the
// base directory.
const ConfigFileName = ".sitekit"

// EnvPrefix prefixes environment variables that override configuration keys,
// e.g. SITEKIT_LOGGER_LEVEL for logger.level.
const EnvPrefix = "SITEKIT"

// ErrConfigExists is returned by WriteDefaultConfig when a configuration file
// is already present and overwrite was not requested.
var ErrConfigExists = errors.New("configuration file already exists")

// ConfigurationManager loads and validates the .sitekit configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
	WriteDefaultConfig(overwrite bool) (string, error)
	ConfigPath() string
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .sitekit resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

func (cm *viperConfigManager) ConfigPath() string {
	return filepath.Join(cm.basePath, ConfigFileName)
}

// setDefaults registers every key of cfg so missing keys fall back
// gracefully and environment overrides are visible to Unmarshal.
func setDefaults(v *viper.Viper, cfg *models.Config) {
	v.SetDefault("logger.enabled", cfg.Logger.Enabled)
	v.SetDefault("logger.level", cfg.Logger.Level)
	v.SetDefault("logger.prefix", cfg.Logger.Prefix)
	v.SetDefault("logger.console", cfg.Logger.Console)
	v.SetDefault("logger.storage", cfg.Logger.Storage)
	v.SetDefault("logger.max_logs", cfg.Logger.MaxLogs)

	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("storage.quota_bytes", cfg.Storage.QuotaBytes)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.max_size_mb", cfg.History.MaxSizeMB)
	v.SetDefault("history.max_backups", cfg.History.MaxBackups)
	v.SetDefault("history.max_age_days", cfg.History.MaxAgeDays)
	v.SetDefault("history.compress", cfg.History.Compress)

	v.SetDefault("site.url", cfg.Site.URL)
	v.SetDefault("site.parallax_speed", cfg.Site.ParallaxSpeed)
	v.SetDefault("site.hero_height", cfg.Site.HeroHeight)
	v.SetDefault("site.nav_offset", cfg.Site.NavOffset)
	v.SetDefault("site.nav_scroll_threshold", cfg.Site.NavScrollThreshold)
	v.SetDefault("site.back_to_top_threshold", cfg.Site.BackToTopThreshold)
	v.SetDefault("site.loader_min_display_ms", cfg.Site.LoaderMinDisplayMS)
	v.SetDefault("site.loader_fade_ms", cfg.Site.LoaderFadeMS)
	v.SetDefault("site.scroll_sample_hz", cfg.Site.ScrollSampleHz)
	v.SetDefault("site.sections", cfg.Site.Sections)
}

// LoadConfig reads .sitekit from the base path using Viper. If the file does
// not exist, defaults (with environment overrides) are returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, models.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg := &models.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error message identifying every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if _, err := models.ParseLevel(cfg.Logger.Level); err != nil {
		errs = append(errs, fmt.Sprintf(
			"logger.level %q is invalid, must be one of: debug, info, success, warn, error",
			cfg.Logger.Level,
		))
	}
	if cfg.Logger.MaxLogs < 0 {
		errs = append(errs, fmt.Sprintf("logger.max_logs must be non-negative, got %d", cfg.Logger.MaxLogs))
	}

	if cfg.Storage.QuotaBytes < 0 {
		errs = append(errs, fmt.Sprintf("storage.quota_bytes must be non-negative, got %d", cfg.Storage.QuotaBytes))
	}
	if cfg.Logger.Storage && cfg.Storage.Dir == "" {
		errs = append(errs, "storage.dir must not be empty when logger.storage is enabled")
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		errs = append(errs, "history.path must not be empty when history is enabled")
	}
	if cfg.History.MaxSizeMB < 0 {
		errs = append(errs, fmt.Sprintf("history.max_size_mb must be non-negative, got %d", cfg.History.MaxSizeMB))
	}
	if cfg.History.MaxBackups < 0 {
		errs = append(errs, fmt.Sprintf("history.max_backups must be non-negative, got %d", cfg.History.MaxBackups))
	}
	if cfg.History.MaxAgeDays < 0 {
		errs = append(errs, fmt.Sprintf("history.max_age_days must be non-negative, got %d", cfg.History.MaxAgeDays))
	}

	if cfg.Site.HeroHeight < 0 {
		errs = append(errs, fmt.Sprintf("site.hero_height must be non-negative, got %g", cfg.Site.HeroHeight))
	}
	if cfg.Site.ScrollSampleHz < 0 {
		errs = append(errs, fmt.Sprintf("site.scroll_sample_hz must be non-negative, got %g", cfg.Site.ScrollSampleHz))
	}
	if cfg.Site.LoaderMinDisplayMS < 0 || cfg.Site.LoaderFadeMS < 0 {
		errs = append(errs, "site loader durations must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// WriteDefaultConfig writes the default configuration to .sitekit in the base
// path and returns the written path.
func (cm *viperConfigManager) WriteDefaultConfig(overwrite bool) (string, error) {
	path := cm.ConfigPath()
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("writing %s: %w", path, ErrConfigExists)
		}
	}

	data, err := MarshalConfig(models.DefaultConfig())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cm.basePath, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", cm.basePath, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// MarshalConfig renders cfg as the YAML document stored in .sitekit.
func MarshalConfig(cfg *models.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return append([]byte("# sitekit configuration\n"), data...), nil
}
