package app

import (
	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var (
	gcFlagDryRun bool
	gcFlagYes    bool
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Garbage-collect unused store paths",
	Long: `Delete unreferenced paths from the Nix store to reclaim disk space.

Garbage collection is NOT reversible: deleted store paths have to be
rebuilt or re-downloaded if something needs them again. Old generations
that have been deleted also stop being rollback targets. nixhand asks
for confirmation unless --yes is given.`,
	Example: `  # See how much would be freed
  nixhand gc --dry-run

  # Collect garbage
  nixhand gc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(nix.KindGarbageCollect, args, gcFlagDryRun, gcFlagYes)
	},
}

func init() {
	gcCmd.Flags().BoolVar(&gcFlagDryRun, "dry-run", false, "Show what would be deleted without deleting")
	gcCmd.Flags().BoolVar(&gcFlagYes, "yes", false, "Skip confirmation prompt")

	RootCmd.AddCommand(gcCmd)
}
