package app

import (
	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var buildFlagDryRun bool

var buildCmd = &cobra.Command{
	Use:   "build <attribute>",
	Short: "Build a package without installing it",
	Long: `Build a package from nixpkgs without adding it to any profile.

The build result lands in the Nix store and is printed as a store path.
Building does not mutate the profile, so no snapshot is taken and no
confirmation is asked.`,
	Example: `  # Build hello from nixpkgs
  nixhand build hello

  # Check what a build would fetch
  nixhand build hello --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(nix.KindBuild, args, buildFlagDryRun, true)
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildFlagDryRun, "dry-run", false, "Show what would be built without building")

	RootCmd.AddCommand(buildCmd)
}
