package store

import "time"

// Snapshot is an index row for a point-in-time system snapshot. The full
// payload lives in the JSON file at SnapshotPath; the row survives even if
// the file is pruned, serving as an audit trail.
type Snapshot struct {
	ID           int64
	TakenAt      time.Time
	Reason       string
	GenerationID *int
	ItemCount    int
	SnapshotPath string
}

// ExecutionRecord is one audited execution attempt.
type ExecutionRecord struct {
	ID          int64
	RunID       string
	Kind        string
	Description string
	Status      string
	Tier        string
	ExitCode    *int
	Elapsed     time.Duration
	StartedAt   time.Time
}

// GenerationEvent records a generation change observed on the system,
// either made by nixhand itself or detected externally by the watcher.
type GenerationEvent struct {
	ID           int64
	GenerationID *int
	Profile      string
	Source       string // "nixhand" or "external"
	ObservedAt   time.Time
}
