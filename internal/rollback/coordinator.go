// Package rollback scans the execution history for the most recent
// reversible operation and issues a compensating operation through the
// tiered executor.
package rollback

import (
	"context"
	"time"

	"github.com/cedarline-systems/nixhand/internal/executor"
	"github.com/cedarline-systems/nixhand/internal/history"
	"github.com/cedarline-systems/nixhand/internal/nix"
)

// scanWindow is how many recent history entries are considered when
// looking for something to roll back.
const scanWindow = 10

// NoRollbackableDiagnostic is the diagnostic text of a rollback attempt
// that found nothing reversible in the scanned window.
const NoRollbackableDiagnostic = "No rollbackable commands in history"

// Coordinator routes compensating operations through the executor.
type Coordinator struct {
	exec   *executor.Executor
	ledger *history.Ledger
}

// New creates a Coordinator.
func New(exec *executor.Executor, ledger *history.Ledger) *Coordinator {
	return &Coordinator{exec: exec, ledger: ledger}
}

// Rollback scans the last 10 history entries (newest first) for reversible
// operations with a rollback token and rolls back the one at position
// steps-1 among them, clamped to the available count. The compensating
// operation runs without confirmation. On success the triggering entry's
// status is additionally marked rolled-back.
func (c *Coordinator) Rollback(ctx context.Context, steps int) executor.Result {
	if steps < 1 {
		steps = 1
	}

	var candidates []history.Entry
	for _, e := range c.ledger.Recent(scanWindow) {
		if e.Reversible && e.RollbackToken != "" {
			candidates = append(candidates, e)
		}
	}

	if len(candidates) == 0 {
		// Nothing to compensate; no backend is touched.
		result := executor.Result{
			Status:      executor.StatusFailed,
			Diagnostics: NoRollbackableDiagnostic,
		}
		c.ledger.Append(history.Entry{
			Kind:        nix.KindRollback.String(),
			Description: "Roll back system",
			Status:      result.Status.String(),
			Timestamp:   time.Now(),
		})
		return result
	}

	idx := steps - 1
	if idx >= len(candidates) {
		idx = len(candidates) - 1
	}
	target := candidates[idx]

	op, err := nix.NewOperation(nix.KindRollback)
	if err != nil {
		// KindRollback is always constructible; guard anyway.
		return executor.Result{Status: executor.StatusFailed, Diagnostics: err.Error()}
	}
	op.Description = "rollback from: " + target.Description

	result, err := c.exec.Execute(ctx, op, false)
	if err != nil {
		result.Status = executor.StatusFailed
		result.Diagnostics = err.Error()
		return result
	}

	if result.Succeeded() {
		c.ledger.MarkRolledBack(target.ID, executor.StatusRolledBack.String())
	}
	return result
}
