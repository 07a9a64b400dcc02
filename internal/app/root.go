package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/config"
)

var (
	dbPathFlag string

	// RootCmd is the root command for nixhand
	RootCmd = &cobra.Command{
		Use:   "nixhand",
		Short: "Resilient Nix package operations with snapshots and rollback",
		Long: `nixhand runs Nix package operations through a ranked ladder of
execution backends, falling back from the safest available method to
manual instructions when nothing on the system can run the command.

Every mutating operation is snapshotted first, recorded in a history
ledger, and can be rolled back with one command.

Features:
  • Tiered execution: nixos-rebuild, nix profile, nix-env, manual steps
  • Dry-run previews before anything touches the system
  • Automatic snapshots before mutating operations
  • One-command rollback from history
  • Generation change auditing, including changes made by other tools

Examples:
  # Preview what installing a package would do
  nixhand install firefox --dry-run

  # Install it
  nixhand install firefox

  # See what has been done lately
  nixhand history

  # Undo the last reversible operation
  nixhand rollback

  # Watch for generation changes made outside nixhand
  nixhand watch --daemon`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("nixhand: resilient Nix package operations")
			fmt.Println()
			fmt.Println("Run 'nixhand doctor' to check which execution backends are available.")
			fmt.Println("Run 'nixhand --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "database path (default: ~/.local/share/nixhand/nixhand.db)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file and applies the --db override.
func loadConfig() (*config.Config, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}
	return cfg, nil
}

// exitError prints the error to stderr and exits non-zero. Used where a
// command has already produced user-facing output and a cobra error
// banner would duplicate it.
func exitError(msg string) {
	fmt.Fprintln(os.Stderr, "Error: "+msg)
	os.Exit(1)
}
