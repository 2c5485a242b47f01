package models

// LoggerConfig holds the diagnostic logger settings read from the logger
// section of .sitekit via Viper.
type LoggerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" mapstructure:"level"`
	Prefix  string `yaml:"prefix" mapstructure:"prefix"`
	Console bool   `yaml:"console" mapstructure:"console"`
	Storage bool   `yaml:"storage" mapstructure:"storage"`
	MaxLogs int    `yaml:"max_logs" mapstructure:"max_logs"`
}

// DefaultLoggerConfig returns the logger defaults: enabled, info level,
// console output on, storage mirroring off, 100 retained entries.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Enabled: true,
		Level:   string(LevelInfo),
		Prefix:  "[SiteKit]",
		Console: true,
		Storage: false,
		MaxLogs: 100,
	}
}

// StorageConfig controls the file-backed key-value store that stands in for
// the browser's local storage.
type StorageConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	QuotaBytes int    `yaml:"quota_bytes" mapstructure:"quota_bytes"`
}

// HistoryConfig controls the rotating JSONL history of recorded entries.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Path       string `yaml:"path" mapstructure:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// SiteConfig holds the tuning values of the page behaviors.
type SiteConfig struct {
	URL                string   `yaml:"url" mapstructure:"url"`
	ParallaxSpeed      float64  `yaml:"parallax_speed" mapstructure:"parallax_speed"`
	HeroHeight         float64  `yaml:"hero_height" mapstructure:"hero_height"`
	NavOffset          float64  `yaml:"nav_offset" mapstructure:"nav_offset"`
	NavScrollThreshold float64  `yaml:"nav_scroll_threshold" mapstructure:"nav_scroll_threshold"`
	BackToTopThreshold float64  `yaml:"back_to_top_threshold" mapstructure:"back_to_top_threshold"`
	LoaderMinDisplayMS int      `yaml:"loader_min_display_ms" mapstructure:"loader_min_display_ms"`
	LoaderFadeMS       int      `yaml:"loader_fade_ms" mapstructure:"loader_fade_ms"`
	ScrollSampleHz     float64  `yaml:"scroll_sample_hz" mapstructure:"scroll_sample_hz"`
	Sections           []string `yaml:"sections,omitempty" mapstructure:"sections"`
}

// Config is the full contents of a .sitekit file.
type Config struct {
	Logger  LoggerConfig  `yaml:"logger" mapstructure:"logger"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Site    SiteConfig    `yaml:"site" mapstructure:"site"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Logger: DefaultLoggerConfig(),
		Storage: StorageConfig{
			Dir:        ".sitekit_storage",
			QuotaBytes: 5 * 1024 * 1024,
		},
		History: HistoryConfig{
			Enabled:    false,
			Path:       ".sitekit_history.jsonl",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   false,
		},
		Site: SiteConfig{
			URL:                "http://localhost/",
			ParallaxSpeed:      0.5,
			HeroHeight:         800,
			NavOffset:          100,
			NavScrollThreshold: 50,
			BackToTopThreshold: 300,
			LoaderMinDisplayMS: 500,
			LoaderFadeMS:       300,
			ScrollSampleHz:     10,
			Sections:           []string{"home", "about", "gallery", "contact"},
		},
	}
}
