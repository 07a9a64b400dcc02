package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/output"
	"github.com/cedarline-systems/nixhand/internal/store"
	"github.com/cedarline-systems/nixhand/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues and check system health",
	Long: `Runs diagnostic checks on your nixhand installation.

Checks:
  • Which execution backends are available and in what order
  • Database exists and is accessible
  • Generation watcher daemon status
  • Recommends next steps`,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("Running nixhand diagnostics...")
	fmt.Println()

	criticalIssues := 0
	warningIssues := 0

	// Check 1: Execution backends
	ctx := context.Background()
	spinner := output.NewSpinner("Probing execution backends")
	spinner.Start()
	tiers := nix.Rank(ctx, nix.NewRunner())
	spinner.Stop()

	// Rank always appends the manual tier, so anything beyond one entry
	// means a real backend answered the probe.
	if len(tiers) <= 1 {
		fmt.Println("✗ No Nix backends found; only manual instructions are available")
		fmt.Println("  Action: Install Nix (https://nixos.org/download) or run on NixOS")
		warningIssues++
	} else {
		fmt.Printf("✓ %d execution backend(s) available\n", len(tiers)-1)
	}
	fmt.Println()
	fmt.Print(output.RenderTierTable(tiers))
	fmt.Println()

	// Check 2: Database
	cfg, err := loadConfig()
	if err != nil {
		fmt.Println("✗ Config error:", err)
		criticalIssues++
	} else if _, statErr := os.Stat(cfg.DBPath); os.IsNotExist(statErr) {
		fmt.Println("✗ Database not found at:", cfg.DBPath)
		fmt.Println("  Action: Run any nixhand command to create it")
		warningIssues++
	} else {
		db, dbErr := store.New(cfg.DBPath)
		if dbErr != nil {
			fmt.Println("✗ Cannot open database:", dbErr)
			criticalIssues++
		} else {
			defer db.Close()
			fmt.Println("✓ Database is accessible:", cfg.DBPath)

			if recs, recErr := db.RecentExecutions(1); recErr == nil && len(recs) > 0 {
				fmt.Println("✓ Execution audit log has entries")
			} else {
				fmt.Println("  No executions recorded yet")
			}
		}
	}

	// Check 3: Watcher daemon
	if pidFile, pidErr := getDefaultPIDFile(); pidErr == nil {
		running, _ := watcher.IsDaemonRunning(pidFile)
		if running {
			if pidData, readErr := os.ReadFile(pidFile); readErr == nil {
				if pid, convErr := strconv.Atoi(strings.TrimSpace(string(pidData))); convErr == nil {
					fmt.Printf("✓ Watcher daemon running (PID %d)\n", pid)
				} else {
					fmt.Println("✓ Watcher daemon running")
				}
			} else {
				fmt.Println("✓ Watcher daemon running")
			}
		} else {
			fmt.Println("  Watcher daemon not running (external generation changes go unrecorded)")
			fmt.Println("  Action: Run 'nixhand watch --daemon' to track them")
		}
	}

	fmt.Println()
	switch {
	case criticalIssues > 0:
		fmt.Printf("%d critical issue(s) found.\n", criticalIssues)
		os.Exit(1)
	case warningIssues > 0:
		fmt.Printf("%d warning(s) found.\n", warningIssues)
		os.Exit(2)
	default:
		fmt.Println("All checks passed.")
	}
	return nil
}
