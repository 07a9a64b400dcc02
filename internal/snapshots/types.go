package snapshots

import (
	"time"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// Data is the JSON structure stored in snapshot files.
type Data struct {
	Timestamp      time.Time         `json:"timestamp"`
	GenerationID   *int              `json:"generationId"`
	InstalledItems []string          `json:"installedItems"`
	Metadata       map[string]string `json:"metadata"`
}

// Manager captures, lists, and prunes system snapshots. Each snapshot is a
// timestamped JSON file in the snapshot directory plus an index row in the
// database.
type Manager struct {
	store       *store.Store
	runner      nix.Runner
	snapshotDir string
}

// New creates a new snapshot Manager.
func New(st *store.Store, runner nix.Runner, snapshotDir string) *Manager {
	return &Manager{
		store:       st,
		runner:      runner,
		snapshotDir: snapshotDir,
	}
}
