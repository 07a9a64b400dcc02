package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/output"
)

var (
	snapshotFlagList    bool
	snapshotFlagPrune   bool
	snapshotFlagRestore string
	snapshotFlagYes     bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [reason]",
	Short: "Capture, list, prune, or restore snapshots",
	Long: `Manage point-in-time snapshots of the profile state.

Without flags a new snapshot is captured immediately; an optional reason
can be given as an argument. Snapshots record the current generation and
installed package list as a JSON file, indexed in the database.

  --list             List existing snapshots
  --prune            Delete snapshot files older than the retention window
  --restore <id>     Return the profile to a snapshot's package set

Pruning removes only the JSON payloads; the index rows stay behind as an
audit trail. Restoring installs packages missing from the current
profile and removes ones the snapshot does not have, through the normal
tiered execution path.`,
	Example: `  # Capture now
  nixhand snapshot "before experimenting"

  # List what exists
  nixhand snapshot --list

  # Drop payloads older than the retention window
  nixhand snapshot --prune

  # Return to snapshot 42
  nixhand snapshot --restore 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotFlagList, "list", false, "List snapshots")
	snapshotCmd.Flags().BoolVar(&snapshotFlagPrune, "prune", false, "Delete snapshot files past the retention window")
	snapshotCmd.Flags().StringVar(&snapshotFlagRestore, "restore", "", "Restore the profile to the given snapshot ID")
	snapshotCmd.Flags().BoolVar(&snapshotFlagYes, "yes", false, "Skip confirmation prompt when restoring")

	RootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	env, err := newAppEnv(ctx, snapshotFlagYes)
	if err != nil {
		return err
	}
	defer env.Close()

	switch {
	case snapshotFlagList:
		snaps, listErr := env.snaps.Latest(0)
		if listErr != nil {
			return fmt.Errorf("failed to list snapshots: %w", listErr)
		}
		fmt.Print(output.RenderSnapshotTable(snaps))
		return nil

	case snapshotFlagPrune:
		removed, pruneErr := env.snaps.Prune(env.cfg.Retention())
		if pruneErr != nil {
			return fmt.Errorf("failed to prune snapshots: %w", pruneErr)
		}
		fmt.Printf("Pruned %d snapshot file(s) older than %d days.\n", removed, env.cfg.RetentionDays)
		return nil

	case snapshotFlagRestore != "":
		id, parseErr := strconv.ParseInt(snapshotFlagRestore, 10, 64)
		if parseErr != nil {
			return fmt.Errorf("invalid snapshot ID %q", snapshotFlagRestore)
		}
		return restoreSnapshot(ctx, env, id)
	}

	reason := "manual snapshot"
	if len(args) == 1 {
		reason = args[0]
	}
	snap, err := env.snaps.Capture(ctx, reason)
	if err != nil {
		return fmt.Errorf("failed to capture snapshot: %w", err)
	}
	fmt.Printf("Snapshot %d captured (%d packages).\n", snap.ID, snap.ItemCount)
	return nil
}

// restoreSnapshot applies a restore plan through the executor so every
// change lands in history and is itself snapshotted.
func restoreSnapshot(ctx context.Context, env *appEnv, id int64) error {
	plan, err := env.snaps.PlanRestore(ctx, id)
	if err != nil {
		return err
	}

	if plan.Empty() {
		fmt.Printf("Profile already matches snapshot %d; nothing to do.\n", id)
		return nil
	}

	fmt.Printf("Restoring snapshot %d:\n", id)
	if len(plan.Install) > 0 {
		fmt.Printf("  install: %s\n", strings.Join(plan.Install, ", "))
	}
	if len(plan.Remove) > 0 {
		fmt.Printf("  remove:  %s\n", strings.Join(plan.Remove, ", "))
	}

	if len(plan.Install) > 0 {
		op, opErr := nix.NewOperation(nix.KindInstall, plan.Install...)
		if opErr != nil {
			return opErr
		}
		res, execErr := env.exec.Execute(ctx, op, !snapshotFlagYes)
		if execErr != nil {
			return execErr
		}
		if !res.Succeeded() {
			printResult(res)
			os.Exit(1)
		}
	}

	if len(plan.Remove) > 0 {
		op, opErr := nix.NewOperation(nix.KindRemove, plan.Remove...)
		if opErr != nil {
			return opErr
		}
		res, execErr := env.exec.Execute(ctx, op, !snapshotFlagYes)
		if execErr != nil {
			return execErr
		}
		if !res.Succeeded() {
			printResult(res)
			os.Exit(1)
		}
	}

	fmt.Printf("✓ Restored snapshot %d.\n", id)
	return nil
}
