package output

import (
	"strings"
	"testing"
	"time"

	"github.com/cedarline-systems/nixhand/internal/history"
	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/store"
)

func TestRenderHistoryTable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		entries  []history.Entry
		contains []string
	}{
		{
			name:     "empty history",
			entries:  []history.Entry{},
			contains: []string{"No history recorded"},
		},
		{
			name: "single entry",
			entries: []history.Entry{
				{
					ID:          3,
					Command:     "nix profile install nixpkgs#firefox",
					Kind:        "install",
					Description: "Install firefox",
					Status:      "succeeded",
					Timestamp:   now.Add(-24 * time.Hour),
				},
			},
			contains: []string{"Install firefox", "succeeded", "1 day ago", "nix profile install"},
		},
		{
			name: "mixed statuses",
			entries: []history.Entry{
				{
					ID:          5,
					Command:     "nix-env --rollback",
					Kind:        "rollback",
					Description: "Roll back system",
					Status:      "failed",
					Timestamp:   now.Add(-2 * time.Hour),
				},
				{
					ID:          4,
					Command:     "nix profile install nixpkgs#ripgrep",
					Kind:        "install",
					Description: "Install ripgrep",
					Status:      "rolled-back",
					Timestamp:   now.Add(-48 * time.Hour),
				},
			},
			contains: []string{"failed", "rolled-back", "Roll back system", "Install ripgrep", "2 days ago"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderHistoryTable(tt.entries)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderHistoryTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderHistoryTable_TruncatesLongCommands(t *testing.T) {
	long := strings.Repeat("x", 100)
	result := RenderHistoryTable([]history.Entry{
		{ID: 1, Command: long, Description: "Custom", Status: "succeeded", Timestamp: time.Now()},
	})

	if strings.Contains(result, long) {
		t.Error("long command should have been truncated")
	}
	if !strings.Contains(result, "...") {
		t.Errorf("truncated command should end in ellipsis\nGot:\n%s", result)
	}
}

func TestRenderSnapshotTable(t *testing.T) {
	now := time.Now()
	gen := 42

	tests := []struct {
		name      string
		snapshots []*store.Snapshot
		contains  []string
	}{
		{
			name:      "empty snapshots",
			snapshots: []*store.Snapshot{},
			contains:  []string{"No snapshots found"},
		},
		{
			name: "snapshot with generation",
			snapshots: []*store.Snapshot{
				{
					ID:           7,
					TakenAt:      now.Add(-1 * time.Hour),
					Reason:       "before: Install firefox",
					GenerationID: &gen,
					ItemCount:    152,
				},
			},
			contains: []string{"7", "42", "152", "before: Install firefox", "1 hour ago"},
		},
		{
			name: "snapshot without generation shows placeholder",
			snapshots: []*store.Snapshot{
				{
					ID:        8,
					TakenAt:   now,
					Reason:    "manual snapshot",
					ItemCount: 0,
				},
			},
			contains: []string{"8", "?", "manual snapshot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderSnapshotTable(tt.snapshots)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderSnapshotTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderGenerationTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name     string
		gens     []nix.Generation
		contains []string
	}{
		{
			name:     "empty generations",
			gens:     []nix.Generation{},
			contains: []string{"No generations found"},
		},
		{
			name: "current generation marked",
			gens: []nix.Generation{
				{ID: 41, Created: "2024-01-10 09:15:00"},
				{ID: 42, Created: "2024-01-15 10:30:00", Current: true},
			},
			contains: []string{"41", "42", "2024-01-15 10:30:00", "(current)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderGenerationTable(tt.gens)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderGenerationTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderGenerationTable_MarksOnlyCurrent(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	result := RenderGenerationTable([]nix.Generation{
		{ID: 41, Created: "2024-01-10"},
		{ID: 42, Created: "2024-01-15", Current: true},
	})

	if strings.Count(result, "(current)") != 1 {
		t.Errorf("exactly one generation should carry the current marker\nGot:\n%s", result)
	}
}

func TestRenderTierTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name     string
		tiers    []nix.Tier
		contains []string
	}{
		{
			name:     "no tiers",
			tiers:    nil,
			contains: []string{"No execution tiers available"},
		},
		{
			name:     "full ladder shows ranks and safety",
			tiers:    nix.AllTiers(),
			contains: []string{"1", "nixos-rebuild", "nix profile", "nix-env", "manual instructions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderTierTable(tt.tiers)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderTierTable() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestRenderGenerationEvents(t *testing.T) {
	now := time.Now()
	gen := 57

	tests := []struct {
		name     string
		events   []*store.GenerationEvent
		contains []string
	}{
		{
			name:     "no events",
			events:   nil,
			contains: []string{"No generation changes observed"},
		},
		{
			name: "external event",
			events: []*store.GenerationEvent{
				{
					ID:           1,
					GenerationID: &gen,
					Profile:      "system",
					Source:       "external",
					ObservedAt:   now.Add(-10 * time.Minute),
				},
			},
			contains: []string{"57", "external", "system", "10 minutes ago"},
		},
		{
			name: "event without generation shows placeholder",
			events: []*store.GenerationEvent{
				{ID: 2, Profile: "default", Source: "external", ObservedAt: now},
			},
			contains: []string{"?", "default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderGenerationEvents(tt.events)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("RenderGenerationEvents() missing expected string %q\nGot:\n%s", expected, result)
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this is a long string", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
