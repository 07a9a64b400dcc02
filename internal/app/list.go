package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long:  `List the packages installed in the active profile.`,
	Example: `  nixhand list
  nixhand list | grep firefox`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := nix.InstalledItems(context.Background(), nix.NewRunner())
		if err != nil {
			return fmt.Errorf("failed to list installed packages: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("No packages installed in the active profile.")
			return nil
		}
		for _, item := range items {
			fmt.Println(item)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(listCmd)
}
