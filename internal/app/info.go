package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system and profile information",
	Long: `Show version information, the current generation, and the number of
installed packages.`,
	Example: `  nixhand info`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		runner := nix.NewRunner()

		op, err := nix.NewOperation(nix.KindSystemInfo)
		if err != nil {
			return err
		}
		for _, tier := range nix.Rank(ctx, runner) {
			cmdSpec, cmdErr := tier.Command(op)
			if cmdErr != nil || len(cmdSpec.Argv) == 0 {
				continue
			}
			run, runErr := runner.Run(ctx, cmdSpec.Argv)
			if runErr != nil || run.ExitCode != 0 {
				continue
			}
			fmt.Printf("Version:    %s\n", strings.TrimSpace(run.Stdout))
			break
		}

		if gen, err := nix.CurrentGeneration(ctx, runner); err == nil {
			fmt.Printf("Generation: %d\n", gen)
		}

		if items, err := nix.InstalledItems(ctx, runner); err == nil {
			fmt.Printf("Packages:   %d installed\n", len(items))
		}

		return nil
	},
}

func init() {
	RootCmd.AddCommand(infoCmd)
}
