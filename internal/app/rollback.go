package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/rollback"
)

var rollbackFlagSteps int

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo the most recent reversible operation",
	Long: `Roll the system back to the state before a recent operation.

nixhand scans the last 10 history entries for reversible operations that
have a restoration point and rolls back the most recent one. Use --steps
to reach further back: --steps 2 rolls back from the second most recent
reversible operation.

Rollback itself runs through the same tiered backends as every other
operation, so it works whether the original change was made with
nixos-rebuild, nix profile, or nix-env.`,
	Example: `  # Undo the last reversible operation
  nixhand rollback

  # Go back two reversible operations
  nixhand rollback --steps 2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		env, err := newAppEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		coord := rollback.New(env.exec, env.ledger)
		res := coord.Rollback(ctx, rollbackFlagSteps)

		if !res.Succeeded() {
			if res.Diagnostics == rollback.NoRollbackableDiagnostic {
				exitError(res.Diagnostics)
			}
			fmt.Fprintf(os.Stderr, "✗ rollback failed\n")
			if res.Diagnostics != "" {
				fmt.Fprintln(os.Stderr, strings.TrimRight(res.Diagnostics, "\n"))
			}
			os.Exit(1)
		}

		printResult(res)
		return nil
	},
}

func init() {
	rollbackCmd.Flags().IntVar(&rollbackFlagSteps, "steps", 1, "How many reversible operations to step back")

	RootCmd.AddCommand(rollbackCmd)
}
