package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/output"
)

var historyFlagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent operations",
	Long: `Show the ledger of recent operations, newest first.

The ledger holds up to 1000 entries in memory and persists the last 100
across sessions. Each entry records the command that ran, its status,
and when it ran.`,
	Example: `  # Last 20 operations
  nixhand history

  # Everything the ledger holds
  nixhand history --limit 0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newAppEnv(context.Background(), true)
		if err != nil {
			return err
		}
		defer env.Close()

		entries := env.ledger.Recent(historyFlagLimit)
		fmt.Print(output.RenderHistoryTable(entries))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 20, "Maximum entries to show (0 = all)")

	RootCmd.AddCommand(historyCmd)
}
