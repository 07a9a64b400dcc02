package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cedarline-systems/nixhand/internal/config"
	"github.com/cedarline-systems/nixhand/internal/executor"
	"github.com/cedarline-systems/nixhand/internal/history"
	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/output"
	"github.com/cedarline-systems/nixhand/internal/snapshots"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// appEnv bundles the components a command needs. Built once per command
// invocation and closed when the command returns.
type appEnv struct {
	cfg    *config.Config
	store  *store.Store
	ledger *history.Ledger
	snaps  *snapshots.Manager
	runner nix.Runner
	exec   *executor.Executor
}

// newAppEnv opens the database, probes the execution tiers, and wires the
// executor. skipConfirm disables the interactive confirmation prompt.
func newAppEnv(ctx context.Context, skipConfirm bool) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	runner := nix.NewRunner()
	ledger := history.New(cfg.HistoryFile)
	snaps := snapshots.New(st, runner, cfg.SnapshotDir)

	opts := executor.Options{
		BaseTimeout:    cfg.BaseTimeout(),
		PreviewTimeout: cfg.PreviewTimeout(),
		AutoSnapshot:   cfg.AutoSnapshotEnabled(),
		MaxAttempts:    cfg.MaxAttempts,
		Progress:       progressPrinter(),
	}
	if !skipConfirm {
		opts.Confirm = promptConfirm
	}

	tiers := nix.Rank(ctx, runner)
	exec := executor.New(tiers, runner, snaps, ledger, st, opts)

	return &appEnv{
		cfg:    cfg,
		store:  st,
		ledger: ledger,
		snaps:  snaps,
		runner: runner,
		exec:   exec,
	}, nil
}

// Close releases the environment's resources.
func (e *appEnv) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// promptConfirm asks the user to approve an operation on stdin.
// Returns false on anything but an explicit yes.
func promptConfirm(op nix.Operation) bool {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s? [y/N]: ", op.Describe())
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// progressPrinter returns an executor progress callback backed by a
// progress bar on a TTY, or a no-op otherwise so scripted output stays
// clean.
func progressPrinter() executor.ProgressFunc {
	if os.Getenv("NO_COLOR") != "" {
		return nil
	}
	bar := output.NewProgress(100, "")
	return bar.SetFraction
}

// timeRounding keeps reported durations readable.
const timeRounding = 10 * time.Millisecond

// runOperation builds an operation, previews or executes it, and renders
// the result. Used by install, remove, update, build, and gc.
func runOperation(kind nix.Kind, args []string, dryRun, yes bool) error {
	ctx := context.Background()

	env, err := newAppEnv(ctx, yes)
	if err != nil {
		return err
	}
	defer env.Close()

	op, err := nix.NewOperation(kind, args...)
	if err != nil {
		return err
	}

	if dryRun {
		res := env.exec.Preview(ctx, op)
		printPreview(res)
		return nil
	}

	res, err := env.exec.Execute(ctx, op, !yes)
	if err != nil {
		return err
	}
	printResult(res)
	if !res.Succeeded() {
		os.Exit(1)
	}
	return nil
}

// printPreview renders a preview result.
func printPreview(res executor.Result) {
	if res.TierUsed != "" {
		fmt.Printf("Preview (%s):\n", res.TierUsed)
	} else {
		fmt.Println("Preview:")
	}
	fmt.Println(strings.TrimRight(res.Output, "\n"))
	if res.Diagnostics != "" {
		fmt.Fprintln(os.Stderr, strings.TrimRight(res.Diagnostics, "\n"))
	}
}

// printResult renders an execution result.
func printResult(res executor.Result) {
	if res.Succeeded() {
		fmt.Printf("✓ %s (%s, %s)\n", res.Operation.Describe(), res.TierUsed, res.Elapsed.Round(timeRounding))
		if strings.TrimSpace(res.Output) != "" {
			fmt.Println(strings.TrimRight(res.Output, "\n"))
		}
		return
	}

	fmt.Fprintf(os.Stderr, "✗ %s failed\n", res.Operation.Describe())
	if res.Diagnostics != "" {
		fmt.Fprintln(os.Stderr, strings.TrimRight(res.Diagnostics, "\n"))
	}
}
