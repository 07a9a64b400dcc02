// Package executor orchestrates preview, confirmation, snapshot capture,
// and execution-with-fallback across the ranked backend tiers.
//
// Retry discipline: each tier gets up to MaxAttempts attempts with an
// escalating timeout (attempt k runs under BaseTimeout × k); when a tier's
// attempts are exhausted the next tier is tried. One discipline, applied
// uniformly to every tier.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/cedarline-systems/nixhand/internal/history"
	"github.com/cedarline-systems/nixhand/internal/nix"
	"github.com/cedarline-systems/nixhand/internal/snapshots"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// ConfirmFunc is invoked with the operation before a non-preview execution.
// Returning false cancels the execution before any backend is touched.
//
// The callback is synchronous and has no timeout: a callback that never
// returns blocks the operation indefinitely. This is a documented property
// of the design, not something the executor papers over.
type ConfirmFunc func(nix.Operation) bool

// ProgressFunc receives progress updates during long-running attempts.
// fraction is in [0,1]. A nil observer changes nothing but skipped calls.
type ProgressFunc func(message string, fraction float64)

// Options tune the executor.
type Options struct {
	BaseTimeout    time.Duration // per-attempt base budget; default 30s
	PreviewTimeout time.Duration // dry-run budget; default 10s
	MaxAttempts    int           // attempts per tier; default 2
	AutoSnapshot   bool          // capture before reversible operations
	Confirm        ConfirmFunc
	Progress       ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.BaseTimeout == 0 {
		o.BaseTimeout = 30 * time.Second
	}
	if o.PreviewTimeout == 0 {
		o.PreviewTimeout = 10 * time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 2
	}
	return o
}

// Executor runs operations against the ranked tier list. The tier list is
// computed once at startup and never reordered; the executor holds it
// immutably.
type Executor struct {
	tiers  []nix.Tier
	runner nix.Runner
	snaps  *snapshots.Manager // nil disables snapshot capture
	ledger *history.Ledger
	audit  *store.Store // nil disables the sqlite audit trail
	opts   Options

	// mutationGate serializes mutating executions: snapshot capture and
	// backend execution are not atomic with respect to each other, so
	// overlapping mutations against the shared system are unsafe.
	// Previews and read-only operations bypass the gate.
	mutationGate *semaphore.Weighted
}

// New creates an Executor over the given ranked tiers.
func New(tiers []nix.Tier, runner nix.Runner, snaps *snapshots.Manager, ledger *history.Ledger, audit *store.Store, opts Options) *Executor {
	return &Executor{
		tiers:        tiers,
		runner:       runner,
		snaps:        snaps,
		ledger:       ledger,
		audit:        audit,
		opts:         opts.withDefaults(),
		mutationGate: semaphore.NewWeighted(1),
	}
}

// Tiers returns the ranked tier list (for display; the slice is shared and
// must not be modified).
func (e *Executor) Tiers() []nix.Tier {
	return e.tiers
}

// Preview renders the side-effect-free form of the operation. It either
// runs the dry-run variant under a short budget and captures its output, or
// synthesizes descriptive text. Preview always terminates with a result and
// never reports an error to the caller.
func (e *Executor) Preview(ctx context.Context, op nix.Operation) Result {
	start := time.Now()
	result := Result{
		Operation: op,
		RunID:     uuid.NewString(),
		Status:    StatusPreviewed,
	}

	tier := e.firstCapableTier(op.Kind)
	if tier == nil {
		result.Output = fmt.Sprintf("Would execute: %s (no backend available)", op.Describe())
		result.Elapsed = time.Since(start)
		e.record(result, start)
		return result
	}
	result.TierUsed = tier.Name()

	cmd, ok := tier.DryRunCommand(op)
	if !ok {
		result.Output = nix.PreviewText(tier, op)
		result.Elapsed = time.Since(start)
		e.record(result, start)
		return result
	}

	runCtx, cancel := context.WithTimeout(ctx, e.opts.PreviewTimeout)
	defer cancel()

	run, err := e.runner.Run(runCtx, cmd.Argv)
	result.Elapsed = time.Since(start)
	result.ExitCode = &run.ExitCode

	switch {
	case run.TimedOut:
		result.Output = fmt.Sprintf("Preview timed out after %s. The command would be: %s",
			e.opts.PreviewTimeout, cmd.String())
	case err != nil:
		result.Output = fmt.Sprintf("Preview unavailable (%v). The command would be: %s", err, cmd.String())
		result.Diagnostics = run.Stderr
	default:
		result.Output = run.Stdout
		result.Diagnostics = run.Stderr
	}

	e.record(result, start)
	return result
}

// Execute runs the operation through the fallback loop. confirm requests
// the registered confirmation callback before touching any backend. Every
// failure mode resolves to a well-formed Result; the error return is
// reserved for caller errors (an operation no tier supports at all).
func (e *Executor) Execute(ctx context.Context, op nix.Operation, confirm bool) (Result, error) {
	start := time.Now()
	result := Result{
		Operation: op,
		RunID:     uuid.NewString(),
		Status:    StatusExecuting,
	}

	e.progress("Starting "+op.Describe(), 0)

	if confirm && e.opts.Confirm != nil {
		if !e.opts.Confirm(op) {
			result.Status = StatusFailed
			result.Diagnostics = "User cancelled execution"
			result.Elapsed = time.Since(start)
			e.record(result, start)
			return result, nil
		}
	}

	if mutates(op.Kind) {
		if err := e.mutationGate.Acquire(ctx, 1); err != nil {
			result.Status = StatusFailed
			result.Diagnostics = fmt.Sprintf("cancelled while waiting for in-flight operation: %v", err)
			result.Elapsed = time.Since(start)
			e.record(result, start)
			return result, nil
		}
		defer e.mutationGate.Release(1)
	}

	// The restoration point must predate the mutation, so capture happens
	// before the first tier attempt.
	if op.Reversible && e.opts.AutoSnapshot && e.snaps != nil {
		e.progress("Capturing snapshot", 0.1)
		if snap, err := e.snaps.Capture(ctx, "before: "+op.Describe()); err == nil {
			result.RollbackToken = strconv.FormatInt(snap.ID, 10)
		} else {
			// A missing snapshot degrades rollback, not execution.
			result.Diagnostics = fmt.Sprintf("snapshot capture failed: %v\n", err)
		}
	}

	capable := 0
	var lastFailure string
	var tried []string

	for _, tier := range e.tiers {
		if !tier.Supports(op.Kind) {
			continue
		}
		cmd, err := tier.Command(op)
		if err != nil {
			continue
		}
		capable++
		tried = append(tried, tier.Name())

		// The manual tier produces instructions instead of running
		// anything; it cannot fail.
		if len(cmd.Argv) == 0 {
			result.Status = StatusSucceeded
			result.Output = cmd.Text
			result.TierUsed = tier.Name()
			zero := 0
			result.ExitCode = &zero
			result.Elapsed = time.Since(start)
			e.progress("Done", 1)
			e.record(result, start)
			return result, nil
		}

		run, ok := e.attemptTier(ctx, tier, cmd)
		if ok {
			result.Status = StatusSucceeded
			result.Output = run.Stdout
			result.Diagnostics += run.Stderr
			result.TierUsed = tier.Name()
			result.ExitCode = &run.ExitCode
			result.Elapsed = time.Since(start)
			e.progress("Done", 1)
			e.record(result, start)
			return result, nil
		}

		if run.TimedOut {
			lastFailure = fmt.Sprintf("%s timed out", tier.Name())
		} else {
			lastFailure = fmt.Sprintf("%s failed: %s", tier.Name(), firstLine(run.Stderr))
		}
		result.ExitCode = &run.ExitCode
		e.progress(fmt.Sprintf("%s, falling back", lastFailure), 0.5)
	}

	result.Elapsed = time.Since(start)
	if capable == 0 {
		result.Status = StatusFailed
		result.Diagnostics += fmt.Sprintf("no backend tier supports %s", op.Kind)
		e.record(result, start)
		return result, fmt.Errorf("%w: %s", nix.ErrUnsupportedKind, op.Kind)
	}

	result.Status = StatusFailed
	if len(tried) > 0 {
		result.TierUsed = tried[len(tried)-1]
	}
	result.Diagnostics += fmt.Sprintf("tried %s; none succeeded: %s",
		strings.Join(tried, ", "), lastFailure)
	e.record(result, start)
	return result, nil
}

// attemptTier runs one tier's command up to MaxAttempts times with an
// escalating timeout. Returns the last run and whether it succeeded.
func (e *Executor) attemptTier(ctx context.Context, tier nix.Tier, cmd nix.Command) (nix.RunResult, bool) {
	var run nix.RunResult
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		budget := e.opts.BaseTimeout * time.Duration(attempt)
		attemptCtx, cancel := context.WithTimeout(ctx, budget)

		var err error
		run, err = e.runner.Run(attemptCtx, cmd.Argv)
		cancel()

		if err == nil && run.ExitCode == 0 {
			return run, true
		}
		// The parent context ending means the caller is gone, not that the
		// backend is slow; stop retrying.
		if ctx.Err() != nil {
			return run, false
		}
	}
	return run, false
}

// firstCapableTier returns the highest-ranked tier supporting the kind.
func (e *Executor) firstCapableTier(kind nix.Kind) nix.Tier {
	for _, tier := range e.tiers {
		if tier.Supports(kind) {
			return tier
		}
	}
	return nil
}

// mutates reports whether a kind changes system state. Mutating kinds are
// serialized through the mutation gate.
func mutates(kind nix.Kind) bool {
	switch kind {
	case nix.KindInstall, nix.KindRemove, nix.KindUpdate, nix.KindRollback,
		nix.KindGarbageCollect, nix.KindCustom:
		return true
	}
	return false
}

func (e *Executor) progress(message string, fraction float64) {
	if e.opts.Progress != nil {
		e.opts.Progress(message, fraction)
	}
}

// record appends the result to the history ledger and the audit table.
// Recording failures are swallowed: the caller's result must always be
// delivered, and the ledger degrading is not the caller's failure.
func (e *Executor) record(r Result, start time.Time) {
	if e.ledger != nil {
		e.ledger.Append(history.Entry{
			Command:       commandText(e, r),
			Kind:          r.Operation.Kind.String(),
			Description:   r.Operation.Describe(),
			Status:        r.Status.String(),
			Timestamp:     start,
			ExitCode:      r.ExitCode,
			Reversible:    r.Operation.Reversible,
			RollbackToken: r.RollbackToken,
		})
	}
	if e.audit != nil {
		e.audit.InsertExecution(&store.ExecutionRecord{
			RunID:       r.RunID,
			Kind:        r.Operation.Kind.String(),
			Description: r.Operation.Describe(),
			Status:      r.Status.String(),
			Tier:        r.TierUsed,
			ExitCode:    r.ExitCode,
			Elapsed:     r.Elapsed,
			StartedAt:   start,
		})
	}
}

// commandText renders the command the result's tier would have used, for
// the history record.
func commandText(e *Executor, r Result) string {
	for _, tier := range e.tiers {
		if tier.Name() != r.TierUsed {
			continue
		}
		if cmd, err := tier.Command(r.Operation); err == nil {
			return cmd.String()
		}
	}
	return r.Operation.Describe()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "(no error output)"
	}
	return s
}
