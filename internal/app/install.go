package app

import (
	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var (
	installFlagDryRun bool
	installFlagYes    bool
)

var installCmd = &cobra.Command{
	Use:   "install <package>...",
	Short: "Install packages",
	Long: `Install one or more packages through the best available backend.

nixhand tries backends in safety order: nix profile first, then nix-env,
and finally prints manual instructions if neither is available. Before
anything changes, a snapshot of the current generation and installed
packages is taken so the operation can be rolled back.

Use --dry-run to see what would happen without touching the system.`,
	Example: `  # Preview first
  nixhand install firefox --dry-run

  # Install one package
  nixhand install firefox

  # Install several without prompting
  nixhand install ripgrep fd jq --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(nix.KindInstall, args, installFlagDryRun, installFlagYes)
	},
}

func init() {
	installCmd.Flags().BoolVar(&installFlagDryRun, "dry-run", false, "Show what would happen without changing anything")
	installCmd.Flags().BoolVar(&installFlagYes, "yes", false, "Skip confirmation prompt")

	RootCmd.AddCommand(installCmd)
}
