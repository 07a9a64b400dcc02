package app

import (
	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var (
	removeFlagDryRun bool
	removeFlagYes    bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <package>...",
	Short: "Remove installed packages",
	Long: `Remove one or more installed packages.

A snapshot is taken before removal so the operation can be undone with
'nixhand rollback'. Use --dry-run to preview the removal first.`,
	Example: `  # Preview what would be removed
  nixhand remove firefox --dry-run

  # Remove it
  nixhand remove firefox

  # Remove without prompting
  nixhand remove firefox --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(nix.KindRemove, args, removeFlagDryRun, removeFlagYes)
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeFlagDryRun, "dry-run", false, "Show what would happen without changing anything")
	removeCmd.Flags().BoolVar(&removeFlagYes, "yes", false, "Skip confirmation prompt")

	RootCmd.AddCommand(removeCmd)
}
