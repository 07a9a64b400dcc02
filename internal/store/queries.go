package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Snapshot operations

// InsertSnapshot records a snapshot index row and returns its id.
func (s *Store) InsertSnapshot(snap *Snapshot) (int64, error) {
	query := `
		INSERT INTO snapshots (taken_at, reason, generation_id, item_count, snapshot_path)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		snap.TakenAt.Format(time.RFC3339),
		snap.Reason,
		snap.GenerationID,
		snap.ItemCount,
		snap.SnapshotPath,
	)
	if err != nil {
		return 0, wrapQueryErr(err, "failed to insert snapshot")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}
	return id, nil
}

// GetSnapshot retrieves a snapshot index row by id.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	query := `
		SELECT id, taken_at, reason, generation_id, item_count, snapshot_path
		FROM snapshots
		WHERE id = ?
	`

	snap, err := scanSnapshot(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %d not found", id)
	}
	if err != nil {
		return nil, wrapQueryErr(err, fmt.Sprintf("failed to get snapshot %d", id))
	}
	return snap, nil
}

// ListSnapshots returns snapshot index rows, newest first, up to limit.
// A limit of 0 returns all rows.
func (s *Store) ListSnapshots(limit int) ([]*Snapshot, error) {
	query := `
		SELECT id, taken_at, reason, generation_id, item_count, snapshot_path
		FROM snapshots
		ORDER BY taken_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list snapshots")
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snaps, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var takenAt string
	var genID sql.NullInt64

	err := row.Scan(&snap.ID, &takenAt, &snap.Reason, &genID, &snap.ItemCount, &snap.SnapshotPath)
	if err != nil {
		return nil, err
	}

	snap.TakenAt, err = time.Parse(time.RFC3339, takenAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse taken_at: %w", err)
	}
	if genID.Valid {
		g := int(genID.Int64)
		snap.GenerationID = &g
	}
	return &snap, nil
}

// InsertSnapshotItems records the installed items captured in a snapshot,
// preserving their order, in a single transaction.
func (s *Store) InsertSnapshotItems(snapshotID int64, items []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO snapshot_items (snapshot_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return wrapQueryErr(err, "failed to prepare snapshot item insert")
	}
	defer stmt.Close()

	for i, name := range items {
		if _, err := stmt.Exec(snapshotID, i, name); err != nil {
			return fmt.Errorf("failed to insert snapshot item %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// GetSnapshotItems returns the items of a snapshot in capture order.
func (s *Store) GetSnapshotItems(snapshotID int64) ([]string, error) {
	query := `
		SELECT name
		FROM snapshot_items
		WHERE snapshot_id = ?
		ORDER BY position
	`

	rows, err := s.db.Query(query, snapshotID)
	if err != nil {
		return nil, wrapQueryErr(err, fmt.Sprintf("failed to get items for snapshot %d", snapshotID))
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot item row: %w", err)
		}
		items = append(items, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot items: %w", err)
	}
	return items, nil
}

// Execution audit operations

// InsertExecution appends an execution attempt to the audit table.
func (s *Store) InsertExecution(rec *ExecutionRecord) error {
	query := `
		INSERT INTO executions (run_id, kind, description, status, tier, exit_code, elapsed_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.RunID,
		rec.Kind,
		rec.Description,
		rec.Status,
		rec.Tier,
		rec.ExitCode,
		rec.Elapsed.Milliseconds(),
		rec.StartedAt.Format(time.RFC3339),
	)
	if err != nil {
		return wrapQueryErr(err, "failed to insert execution")
	}
	return nil
}

// RecentExecutions returns audit records newest first, up to limit.
func (s *Store) RecentExecutions(limit int) ([]*ExecutionRecord, error) {
	query := `
		SELECT id, run_id, kind, description, status, tier, exit_code, elapsed_ms, started_at
		FROM executions
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list executions")
	}
	defer rows.Close()

	var recs []*ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var exitCode sql.NullInt64
		var elapsedMS int64
		var startedAt string

		err := rows.Scan(&rec.ID, &rec.RunID, &rec.Kind, &rec.Description,
			&rec.Status, &rec.Tier, &exitCode, &elapsedMS, &startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}

		if exitCode.Valid {
			c := int(exitCode.Int64)
			rec.ExitCode = &c
		}
		rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		rec.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		recs = append(recs, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return recs, nil
}

// Generation event operations

// InsertGenerationEvent records an observed generation change.
func (s *Store) InsertGenerationEvent(ev *GenerationEvent) error {
	query := `
		INSERT INTO generation_events (generation_id, profile, source, observed_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		ev.GenerationID,
		ev.Profile,
		ev.Source,
		ev.ObservedAt.Format(time.RFC3339),
	)
	if err != nil {
		return wrapQueryErr(err, "failed to insert generation event")
	}
	return nil
}

// RecentGenerationEvents returns generation events newest first, up to limit.
func (s *Store) RecentGenerationEvents(limit int) ([]*GenerationEvent, error) {
	query := `
		SELECT id, generation_id, profile, source, observed_at
		FROM generation_events
		ORDER BY observed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, wrapQueryErr(err, "failed to list generation events")
	}
	defer rows.Close()

	var events []*GenerationEvent
	for rows.Next() {
		var ev GenerationEvent
		var genID sql.NullInt64
		var observedAt string

		if err := rows.Scan(&ev.ID, &genID, &ev.Profile, &ev.Source, &observedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation event row: %w", err)
		}
		if genID.Valid {
			g := int(genID.Int64)
			ev.GenerationID = &g
		}
		ev.ObservedAt, err = time.Parse(time.RFC3339, observedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse observed_at: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation events: %w", err)
	}
	return events, nil
}
