package snapshots

import (
	"context"
	"fmt"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// RestorePlan describes what has to change to return the profile to a
// snapshot's state. The caller decides how to run it; computing the plan
// never mutates anything.
type RestorePlan struct {
	Snapshot *store.Snapshot

	// Install lists packages present in the snapshot but missing now.
	Install []string

	// Remove lists packages present now but absent from the snapshot.
	Remove []string
}

// Empty reports whether the current state already matches the snapshot.
func (p *RestorePlan) Empty() bool {
	return len(p.Install) == 0 && len(p.Remove) == 0
}

// PlanRestore diffs the snapshot's recorded package set against the
// packages currently installed.
func (m *Manager) PlanRestore(ctx context.Context, id int64) (*RestorePlan, error) {
	snap, data, err := m.Load(id)
	if err != nil {
		return nil, err
	}
	if len(data.InstalledItems) == 0 {
		return nil, fmt.Errorf("snapshot %d has no recorded package list to restore from", id)
	}

	current, err := nix.InstalledItems(ctx, m.runner)
	if err != nil {
		return nil, fmt.Errorf("failed to query installed packages: %w", err)
	}

	want := make(map[string]bool, len(data.InstalledItems))
	for _, item := range data.InstalledItems {
		want[item] = true
	}
	have := make(map[string]bool, len(current))
	for _, item := range current {
		have[item] = true
	}

	plan := &RestorePlan{Snapshot: snap}
	for _, item := range data.InstalledItems {
		if !have[item] {
			plan.Install = append(plan.Install, item)
		}
	}
	for _, item := range current {
		if !want[item] {
			plan.Remove = append(plan.Remove, item)
		}
	}
	return plan, nil
}
