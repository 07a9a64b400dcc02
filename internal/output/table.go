// Package output provides terminal output utilities for nixhand.
//
// This package includes:
//   - Table rendering functions for history entries, snapshots, generations, and tiers
//   - Progress bars for long-running operations
//   - Spinners for indeterminate operations
//
// All table rendering functions use ASCII characters and ANSI color codes for terminal output.
// Progress indicators are thread-safe and can be used from multiple goroutines.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/cedarline-systems/nixhand/internal/history"
	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// ANSI color codes for status and safety display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderHistoryTable renders a table of execution history entries,
// newest first (the order the ledger returns them).
func RenderHistoryTable(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No history recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-4s %-12s %-13s %-30s %s\n",
		"ID", "Status", "When", "Description", "Command"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	for _, e := range entries {
		status := colorize(statusColor(e.Status), fmt.Sprintf("%-12s", e.Status))
		sb.WriteString(fmt.Sprintf("%-4d %s %-13s %-30s %s\n",
			e.ID,
			status,
			humanize.Time(e.Timestamp),
			truncate(e.Description, 30),
			truncate(e.Command, 40)))
	}

	return sb.String()
}

// RenderSnapshotTable renders a table of snapshots, newest first
// (the order the store returns them).
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-15s %-11s %-8s %s\n",
		"ID", "Taken", "Generation", "Items", "Reason"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, snap := range snapshots {
		gen := "?"
		if snap.GenerationID != nil {
			gen = fmt.Sprintf("%d", *snap.GenerationID)
		}
		sb.WriteString(fmt.Sprintf("%-5d %-15s %-11s %-8d %s\n",
			snap.ID,
			humanize.Time(snap.TakenAt),
			gen,
			snap.ItemCount,
			truncate(snap.Reason, 40)))
	}

	return sb.String()
}

// RenderGenerationTable renders a table of system generations.
// The current generation is marked and colored green.
func RenderGenerationTable(gens []nix.Generation) string {
	if len(gens) == 0 {
		return "No generations found.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-22s %s\n",
		"Generation", "Created", "Current"))
	sb.WriteString(strings.Repeat("─", 44))
	sb.WriteString("\n")

	for _, g := range gens {
		marker := ""
		if g.Current {
			marker = colorize(colorGreen, "(current)")
		}
		sb.WriteString(fmt.Sprintf("%-12d %-22s %s\n", g.ID, g.Created, marker))
	}

	return sb.String()
}

// RenderTierTable renders the ranked execution tiers with their safety
// levels and supported features.
func RenderTierTable(tiers []nix.Tier) string {
	if len(tiers) == 0 {
		return "No execution tiers available.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-6s %-22s %-16s %s\n",
		"Rank", "Tier", "Safety", "Features"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	for i, t := range tiers {
		safety := t.Safety()
		sb.WriteString(fmt.Sprintf("%-6d %-22s %s %s\n",
			i+1,
			t.Name(),
			colorize(safetyColor(safety), fmt.Sprintf("%-16s", safety)),
			strings.Join(t.Features(), ", ")))
	}

	return sb.String()
}

// RenderGenerationEvents renders observed generation changes, newest first.
func RenderGenerationEvents(events []*store.GenerationEvent) string {
	if len(events) == 0 {
		return "No generation changes observed.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-10s %-13s %s\n",
		"Generation", "Source", "When", "Profile"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, ev := range events {
		gen := "?"
		if ev.GenerationID != nil {
			gen = fmt.Sprintf("%d", *ev.GenerationID)
		}
		sb.WriteString(fmt.Sprintf("%-12s %-10s %-13s %s\n",
			gen,
			ev.Source,
			humanize.Time(ev.ObservedAt),
			ev.Profile))
	}

	return sb.String()
}

// statusColor returns the ANSI color code for an execution status.
func statusColor(status string) string {
	switch strings.ToLower(status) {
	case "succeeded", "previewed":
		return colorGreen
	case "failed":
		return colorRed
	case "rolled-back":
		return colorYellow
	default:
		return colorGray
	}
}

// safetyColor returns the ANSI color code for a tier safety level.
func safetyColor(s nix.Safety) string {
	switch s {
	case nix.SafetyHighest, nix.SafetyHigh:
		return colorGreen
	case nix.SafetyMedium:
		return colorYellow
	default:
		return colorGray
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
