// Package config provides configuration file parsing for nixhand.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Dir returns the nixhand config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/nixhand if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "nixhand"), nil
}

// DataDir returns the nixhand data directory, respecting XDG_DATA_HOME.
// Defaults to ~/.local/share/nixhand if XDG_DATA_HOME is not set.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "nixhand"), nil
}

// Config holds the settings read from config.yaml in the config directory.
// Any field left at its zero value falls back to the default.
type Config struct {
	SnapshotDir    string `yaml:"snapshot_dir"`
	HistoryFile    string `yaml:"history_file"`
	DBPath         string `yaml:"db_path"`
	RetentionDays  int    `yaml:"retention_days"`
	BaseTimeoutSec int    `yaml:"base_timeout"`
	PreviewTimeSec int    `yaml:"preview_timeout"`
	MaxAttempts    int    `yaml:"max_attempts"`
	AutoSnapshot   *bool  `yaml:"auto_snapshot"`
	ProfilesDir    string `yaml:"profiles_dir"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	data, _ := DataDir()
	auto := true
	return &Config{
		SnapshotDir:    filepath.Join(data, "snapshots"),
		HistoryFile:    filepath.Join(data, "history.json"),
		DBPath:         filepath.Join(data, "nixhand.db"),
		RetentionDays:  90,
		BaseTimeoutSec: 30,
		PreviewTimeSec: 10,
		MaxAttempts:    2,
		AutoSnapshot:   &auto,
		ProfilesDir:    "/nix/var/nix/profiles",
	}
}

// Load reads config.yaml from the given directory, backfilling any missing
// field from Default. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Ensure defaults for zero values
	def := Default()
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = def.SnapshotDir
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = def.HistoryFile
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = def.RetentionDays
	}
	if cfg.BaseTimeoutSec == 0 {
		cfg.BaseTimeoutSec = def.BaseTimeoutSec
	}
	if cfg.PreviewTimeSec == 0 {
		cfg.PreviewTimeSec = def.PreviewTimeSec
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.AutoSnapshot == nil {
		cfg.AutoSnapshot = def.AutoSnapshot
	}
	if cfg.ProfilesDir == "" {
		cfg.ProfilesDir = def.ProfilesDir
	}

	return cfg, nil
}

// BaseTimeout returns the configured base execution timeout.
func (c *Config) BaseTimeout() time.Duration {
	return time.Duration(c.BaseTimeoutSec) * time.Second
}

// PreviewTimeout returns the configured preview timeout.
func (c *Config) PreviewTimeout() time.Duration {
	return time.Duration(c.PreviewTimeSec) * time.Second
}

// Retention returns the snapshot retention window.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// AutoSnapshotEnabled reports whether mutating operations snapshot first.
func (c *Config) AutoSnapshotEnabled() bool {
	return c.AutoSnapshot == nil || *c.AutoSnapshot
}

// EnsureDirs creates the directories the configured paths live in.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.SnapshotDir,
		filepath.Dir(c.HistoryFile),
		filepath.Dir(c.DBPath),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}
