package executor

import (
	"fmt"
	"time"

	"github.com/cedarline-systems/nixhand/internal/nix"
)

// Status is the lifecycle state of an execution.
type Status int

const (
	StatusPending Status = iota
	StatusPreviewed
	StatusExecuting
	StatusSucceeded
	StatusFailed
	StatusRolledBack
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPreviewed:
		return "previewed"
	case StatusExecuting:
		return "executing"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusRolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsTerminal returns true once a result can no longer change.
func IsTerminal(s Status) bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusRolledBack
}

// Result is the outcome of one execution attempt. A Result is created fresh
// per attempt and never mutated once its status is terminal.
type Result struct {
	Operation   nix.Operation
	RunID       string
	Status      Status
	Output      string
	Diagnostics string
	ExitCode    *int
	Elapsed     time.Duration
	TierUsed    string

	// RollbackToken references the snapshot captured before execution.
	// Present only for reversible operations where a snapshot was taken.
	RollbackToken string
}

// Succeeded reports whether the execution reached StatusSucceeded.
func (r Result) Succeeded() bool {
	return r.Status == StatusSucceeded
}
