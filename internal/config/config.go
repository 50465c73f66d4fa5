package config

import "time"

// Config is the complete macinstall configuration.
type Config struct {
	Packages  PackagesConfig  `koanf:"packages"`
	LocalCask LocalCaskConfig `koanf:"localcask"`
	Paths     PathsConfig     `koanf:"paths"`
	History   HistoryConfig   `koanf:"history"`
	Log       LogConfig       `koanf:"log"`
	Watch     WatchConfig     `koanf:"watch"`
}

type PackagesConfig struct {
	// File is the package document. Empty selects the built-in list.
	File string `koanf:"file"`
}

type LocalCaskConfig struct {
	StartupDir string `koanf:"startup_dir"`
	RepoURL    string `koanf:"repo_url"`
}

type PathsConfig struct {
	Applications string `koanf:"applications"`
	Receipts     string `koanf:"receipts"`
	Trash        string `koanf:"trash"`
}

type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	DB      string `koanf:"db"`
}

type LogConfig struct {
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}
