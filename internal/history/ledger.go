// Package history provides the append-only, size-bounded ledger of executed
// operations. The in-memory ledger keeps the most recent 1000 entries; a
// durable JSON copy of the most recent 100 is rewritten after every append.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// MemoryCap bounds the in-memory ledger; the oldest entry is evicted
	// when a new append would exceed it.
	MemoryCap = 1000

	// PersistCap bounds the durable copy.
	PersistCap = 100
)

// Entry is one executed (or previewed) operation outcome.
//
// Reversible and RollbackToken exist for the rollback coordinator and are
// kept in memory only; the durable file stores the flat persisted record.
type Entry struct {
	ID            int64     `json:"-"`
	Command       string    `json:"command"`
	Kind          string    `json:"kind"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	ExitCode      *int      `json:"exitCode"`
	Reversible    bool      `json:"-"`
	RollbackToken string    `json:"-"`
}

// persistedEntry is the flat record layout of the durable history file.
type persistedEntry struct {
	Command     string    `json:"command"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	ExitCode    *int      `json:"exitCode"`
}

// Ledger is the bounded execution history. Appends are serialized by a
// single writer lock so the eviction invariant holds under concurrent
// dispatch; reads take the same lock briefly and copy out.
type Ledger struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	nextID  int64
}

// New creates a Ledger persisted at path. If a history file already exists
// its records are loaded so rollback context survives restarts. A load
// failure is not fatal: the ledger starts empty and the file is rewritten
// on the next append.
func New(path string) *Ledger {
	l := &Ledger{path: path, nextID: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		return l
	}
	var persisted []persistedEntry
	if err := json.Unmarshal(data, &persisted); err != nil {
		return l
	}
	for _, p := range persisted {
		l.entries = append(l.entries, Entry{
			ID:          l.nextID,
			Command:     p.Command,
			Kind:        p.Kind,
			Description: p.Description,
			Status:      p.Status,
			Timestamp:   p.Timestamp,
			ExitCode:    p.ExitCode,
		})
		l.nextID++
	}
	return l
}

// Append records an entry, evicts beyond the in-memory cap, and rewrites
// the durable copy. The assigned entry id is returned.
func (l *Ledger) Append(e Entry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = l.nextID
	l.nextID++
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.entries = append(l.entries, e)
	if len(l.entries) > MemoryCap {
		l.entries = l.entries[len(l.entries)-MemoryCap:]
	}

	if err := l.persistLocked(); err != nil {
		return e.ID, err
	}
	return e.ID, nil
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}

	out := make([]Entry, 0, limit)
	for i := len(l.entries) - 1; i >= len(l.entries)-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of in-memory entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// MarkRolledBack flips the status of the entry with the given id and
// rewrites the durable copy. Returns an error if the entry has been
// evicted or never existed.
func (l *Ledger) MarkRolledBack(id int64, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Status = status
			return l.persistLocked()
		}
	}
	return fmt.Errorf("history entry %d not found", id)
}

// persistLocked rewrites the durable file with the last PersistCap entries.
// Uses the temp-file + rename pattern so a crash mid-write never corrupts
// the history file. Must be called with mu held.
func (l *Ledger) persistLocked() error {
	if l.path == "" {
		return nil
	}

	start := 0
	if len(l.entries) > PersistCap {
		start = len(l.entries) - PersistCap
	}

	persisted := make([]persistedEntry, 0, len(l.entries)-start)
	for _, e := range l.entries[start:] {
		persisted = append(persisted, persistedEntry{
			Command:     e.Command,
			Kind:        e.Kind,
			Description: e.Description,
			Status:      e.Status,
			Timestamp:   e.Timestamp,
			ExitCode:    e.ExitCode,
		})
	}

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
