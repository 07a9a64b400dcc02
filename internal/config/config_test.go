package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

// TestDefault_Values verifies the out-of-the-box settings.
func TestDefault_Values(t *testing.T) {
	cfg := Default()

	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d; want 90", cfg.RetentionDays)
	}
	if cfg.BaseTimeout() != 30*time.Second {
		t.Errorf("BaseTimeout() = %v; want 30s", cfg.BaseTimeout())
	}
	if cfg.PreviewTimeout() != 10*time.Second {
		t.Errorf("PreviewTimeout() = %v; want 10s", cfg.PreviewTimeout())
	}
	if cfg.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d; want 2", cfg.MaxAttempts)
	}
	if !cfg.AutoSnapshotEnabled() {
		t.Error("AutoSnapshotEnabled() should default to true")
	}
	if cfg.ProfilesDir != "/nix/var/nix/profiles" {
		t.Errorf("ProfilesDir = %q; want /nix/var/nix/profiles", cfg.ProfilesDir)
	}
	if cfg.SnapshotDir == "" || cfg.HistoryFile == "" || cfg.DBPath == "" {
		t.Error("default paths should not be empty")
	}
}

// TestLoad_MissingFile_ReturnsDefaults verifies an absent config.yaml is
// not an error.
func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("RetentionDays = %d; want the default 90", cfg.RetentionDays)
	}
}

// TestLoad_PartialFile_BackfillsDefaults verifies fields absent from the
// file fall back instead of zeroing out.
func TestLoad_PartialFile_BackfillsDefaults(t *testing.T) {
	dir := writeConfig(t, "base_timeout: 120\nretention_days: 7\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.BaseTimeout() != 120*time.Second {
		t.Errorf("BaseTimeout() = %v; want 120s", cfg.BaseTimeout())
	}
	if cfg.Retention() != 7*24*time.Hour {
		t.Errorf("Retention() = %v; want 7 days", cfg.Retention())
	}
	if cfg.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d; omitted field should backfill to 2", cfg.MaxAttempts)
	}
	if cfg.DBPath == "" {
		t.Error("omitted DBPath should backfill to the default")
	}
}

// TestLoad_AutoSnapshotFalse_Respected verifies an explicit false survives
// the zero-value backfill.
func TestLoad_AutoSnapshotFalse_Respected(t *testing.T) {
	dir := writeConfig(t, "auto_snapshot: false\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.AutoSnapshotEnabled() {
		t.Error("auto_snapshot: false should disable auto snapshots")
	}
}

// TestLoad_InvalidYAML_Fails verifies malformed config is surfaced.
func TestLoad_InvalidYAML_Fails(t *testing.T) {
	dir := writeConfig(t, "base_timeout: [not a number\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("Load() should fail on malformed YAML")
	}
}

// TestLoad_FullFile_OverridesEverything verifies every field is read.
func TestLoad_FullFile_OverridesEverything(t *testing.T) {
	dir := writeConfig(t, `snapshot_dir: /var/lib/nixhand/snaps
history_file: /var/lib/nixhand/history.json
db_path: /var/lib/nixhand/audit.db
retention_days: 30
base_timeout: 60
preview_timeout: 5
max_attempts: 4
auto_snapshot: true
profiles_dir: /tmp/profiles
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SnapshotDir != "/var/lib/nixhand/snaps" {
		t.Errorf("SnapshotDir = %q", cfg.SnapshotDir)
	}
	if cfg.HistoryFile != "/var/lib/nixhand/history.json" {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile)
	}
	if cfg.DBPath != "/var/lib/nixhand/audit.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d; want 4", cfg.MaxAttempts)
	}
	if cfg.ProfilesDir != "/tmp/profiles" {
		t.Errorf("ProfilesDir = %q; want /tmp/profiles", cfg.ProfilesDir)
	}
}

// TestDir_RespectsXDGConfigHome verifies the XDG override.
func TestDir_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() failed: %v", err)
	}
	if dir != filepath.Join("/custom/config", "nixhand") {
		t.Errorf("Dir() = %q; want /custom/config/nixhand", dir)
	}
}

// TestDataDir_RespectsXDGDataHome verifies the XDG override.
func TestDataDir_RespectsXDGDataHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() failed: %v", err)
	}
	if dir != filepath.Join("/custom/data", "nixhand") {
		t.Errorf("DataDir() = %q; want /custom/data/nixhand", dir)
	}
}

// TestEnsureDirs_CreatesConfiguredPaths verifies directory creation for
// the snapshot, history, and database paths.
func TestEnsureDirs_CreatesConfiguredPaths(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{
		SnapshotDir: filepath.Join(base, "snaps"),
		HistoryFile: filepath.Join(base, "state", "history.json"),
		DBPath:      filepath.Join(base, "state", "nixhand.db"),
	}

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() failed: %v", err)
	}

	for _, d := range []string{cfg.SnapshotDir, filepath.Dir(cfg.HistoryFile)} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("%s should be a directory", d)
		}
	}
}
