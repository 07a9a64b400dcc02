package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/output"
)

var generationsFlagEvents bool

var generationsCmd = &cobra.Command{
	Use:   "generations",
	Short: "List profile generations",
	Long: `List the generations of the active profile.

Each mutating operation creates a new generation; older generations are
rollback targets until they are garbage-collected. With --events the
command instead shows generation changes nixhand has observed, including
ones made by other tools while 'nixhand watch' was running.`,
	Example: `  # Current generation list
  nixhand generations

  # Observed generation changes (needs the watcher)
  nixhand generations --events`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generationsFlagEvents {
			return showGenerationEvents()
		}

		gens, err := nix.Generations(context.Background(), nix.NewRunner())
		if err != nil {
			return fmt.Errorf("failed to list generations: %w", err)
		}
		fmt.Print(output.RenderGenerationTable(gens))
		return nil
	},
}

func showGenerationEvents() error {
	env, err := newAppEnv(context.Background(), true)
	if err != nil {
		return err
	}
	defer env.Close()

	events, err := env.store.RecentGenerationEvents(50)
	if err != nil {
		return fmt.Errorf("failed to read generation events: %w", err)
	}
	fmt.Print(output.RenderGenerationEvents(events))
	return nil
}

func init() {
	generationsCmd.Flags().BoolVar(&generationsFlagEvents, "events", false, "Show observed generation changes instead")

	RootCmd.AddCommand(generationsCmd)
}
