package app

import (
	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var (
	updateFlagDryRun bool
	updateFlagYes    bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the system or user profile",
	Long: `Update installed packages to their latest versions.

On NixOS with nixos-rebuild available this performs a full system
upgrade; otherwise it upgrades everything in the active profile. A
snapshot is taken first and the previous generation remains available
for rollback.

Updating usually requires elevated privileges.`,
	Example: `  # See what an update would do
  nixhand update --dry-run

  # Update everything
  nixhand update`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(nix.KindUpdate, args, updateFlagDryRun, updateFlagYes)
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateFlagDryRun, "dry-run", false, "Show what would happen without changing anything")
	updateCmd.Flags().BoolVar(&updateFlagYes, "yes", false, "Skip confirmation prompt")

	RootCmd.AddCommand(updateCmd)
}
