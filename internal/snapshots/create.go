package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// captureQueryTimeout bounds each sub-query during capture so a hung
// backend cannot stall the operation the snapshot is protecting.
const captureQueryTimeout = 10 * time.Second

// Capture records the current system state and returns the index row.
//
// Capture is deliberately best-effort about its sub-queries: a generation
// id or installed-item listing that cannot be obtained is simply omitted
// from the snapshot. A partial snapshot is still useful context for a human
// reviewing rollback history, where aborting would leave nothing at all.
// Only a failure to write the snapshot itself is reported as an error.
func (m *Manager) Capture(ctx context.Context, reason string) (*store.Snapshot, error) {
	if err := os.MkdirAll(m.snapshotDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	takenAt := time.Now()
	data := &Data{
		Timestamp: takenAt,
		Metadata:  map[string]string{"reason": reason},
	}

	genCtx, cancel := context.WithTimeout(ctx, captureQueryTimeout)
	if gen, err := nix.CurrentGeneration(genCtx, m.runner); err == nil {
		data.GenerationID = &gen
	}
	cancel()

	itemsCtx, cancel := context.WithTimeout(ctx, captureQueryTimeout)
	if items, err := nix.InstalledItems(itemsCtx, m.runner); err == nil {
		data.InstalledItems = items
	}
	cancel()

	// Snapshot filename: YYYY-MM-DD-HHMMSS.json
	filename := fmt.Sprintf("%s.json", takenAt.Format("2006-01-02-150405"))
	snapshotPath := filepath.Join(m.snapshotDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot data: %w", err)
	}
	if err := os.WriteFile(snapshotPath, jsonData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot file: %w", err)
	}

	snap := &store.Snapshot{
		TakenAt:      takenAt,
		Reason:       reason,
		GenerationID: data.GenerationID,
		ItemCount:    len(data.InstalledItems),
		SnapshotPath: snapshotPath,
	}

	id, err := m.store.InsertSnapshot(snap)
	if err != nil {
		// Clean up the JSON file if the index insert fails.
		os.Remove(snapshotPath)
		return nil, fmt.Errorf("failed to insert snapshot into database: %w", err)
	}
	snap.ID = id

	if len(data.InstalledItems) > 0 {
		if err := m.store.InsertSnapshotItems(id, data.InstalledItems); err != nil {
			return nil, fmt.Errorf("failed to insert snapshot items: %w", err)
		}
	}

	return snap, nil
}

// Latest returns the n most recent snapshots, newest first.
func (m *Manager) Latest(n int) ([]*store.Snapshot, error) {
	snaps, err := m.store.ListSnapshots(n)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// Load reads the full payload of a snapshot from its file.
func (m *Manager) Load(id int64) (*store.Snapshot, *Data, error) {
	snap, err := m.store.GetSnapshot(id)
	if err != nil {
		return nil, nil, err
	}

	raw, err := os.ReadFile(snap.SnapshotPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to parse snapshot JSON: %w", err)
	}
	return snap, &data, nil
}

// Prune removes snapshot files older than the retention window and returns
// how many files were deleted. Database rows are kept as an audit trail of
// when snapshots existed, matching the explicit retention policy: files are
// bounded, history is not.
func (m *Manager) Prune(retention time.Duration) (int, error) {
	snaps, err := m.store.ListSnapshots(0)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	deleted := 0

	for _, snap := range snaps {
		if !snap.TakenAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(snap.SnapshotPath); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("failed to delete snapshot file %s: %w", snap.SnapshotPath, err)
		}
		deleted++
	}

	return deleted, nil
}
