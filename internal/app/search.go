package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/output"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Search nixpkgs for packages",
	Long: `Search the nixpkgs package set.

Results are cached for a few minutes, so repeating a search is instant.
The cache also collapses concurrent identical searches into a single
backend call.`,
	Example: `  nixhand search firefox
  nixhand search "python 3.12"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner := output.NewSpinner(fmt.Sprintf("Searching nixpkgs for %q", strings.Join(args, " ")))
		spinner.Start()

		cache := nix.NewSearchCache(nix.NewRunner())
		results, err := cache.Search(context.Background(), args)
		spinner.Stop()
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if strings.TrimSpace(results) == "" {
			fmt.Println("No packages found.")
			return nil
		}
		fmt.Println(strings.TrimRight(results, "\n"))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(searchCmd)
}
