package store

import (
	"errors"
	"testing"
	"time"
)

// Helper function to create an in-memory store with schema for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	return s
}

// TestListSnapshots_NoSchema_ReturnsErrNotInitialized verifies that
// querying a fresh DB (no CreateSchema) returns ErrNotInitialized.
func TestListSnapshots_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	// Do NOT call CreateSchema; simulate an uninitialized database.
	_, err = s.ListSnapshots(0)
	if err == nil {
		t.Fatal("ListSnapshots() should return an error on uninitialized DB")
	}
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListSnapshots() error = %v; want errors.Is(err, ErrNotInitialized) to be true", err)
	}
}

// TestInsertSnapshot_RoundTrip verifies a snapshot row survives insert and
// retrieval, including the nullable generation id.
func TestInsertSnapshot_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	gen := 42
	snap := &Snapshot{
		TakenAt:      time.Now().Truncate(time.Second),
		Reason:       "before: Install firefox",
		GenerationID: &gen,
		ItemCount:    3,
		SnapshotPath: "/tmp/snap.json",
	}

	id, err := s.InsertSnapshot(snap)
	if err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}
	if id == 0 {
		t.Fatal("InsertSnapshot() returned id 0")
	}

	got, err := s.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if got.Reason != snap.Reason {
		t.Errorf("Reason = %q; want %q", got.Reason, snap.Reason)
	}
	if got.GenerationID == nil || *got.GenerationID != 42 {
		t.Errorf("GenerationID = %v; want 42", got.GenerationID)
	}
	if got.ItemCount != 3 {
		t.Errorf("ItemCount = %d; want 3", got.ItemCount)
	}
	if !got.TakenAt.Equal(snap.TakenAt) {
		t.Errorf("TakenAt = %v; want %v", got.TakenAt, snap.TakenAt)
	}
}

// TestInsertSnapshot_NilGeneration verifies a snapshot whose generation
// query failed stores and reads back a nil generation id.
func TestInsertSnapshot_NilGeneration(t *testing.T) {
	s := newTestStore(t)

	snap := &Snapshot{
		TakenAt:      time.Now(),
		Reason:       "partial capture",
		SnapshotPath: "/tmp/partial.json",
	}
	id, err := s.InsertSnapshot(snap)
	if err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}

	got, err := s.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if got.GenerationID != nil {
		t.Errorf("GenerationID = %v; want nil", got.GenerationID)
	}
}

// TestGetSnapshot_Missing_ReturnsError verifies unknown ids fail clearly.
func TestGetSnapshot_Missing_ReturnsError(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetSnapshot(999); err == nil {
		t.Error("GetSnapshot(999) should fail for a missing row")
	}
}

// TestListSnapshots_NewestFirst_AndLimit verifies ordering and the limit
// parameter (0 = all).
func TestListSnapshots_NewestFirst_AndLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := s.InsertSnapshot(&Snapshot{
			TakenAt:      base.Add(time.Duration(i) * time.Minute),
			Reason:       "snap",
			SnapshotPath: "/tmp/s.json",
		})
		if err != nil {
			t.Fatalf("InsertSnapshot() failed: %v", err)
		}
	}

	all, err := s.ListSnapshots(0)
	if err != nil {
		t.Fatalf("ListSnapshots(0) failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListSnapshots(0) returned %d rows; want 3", len(all))
	}
	if !all[0].TakenAt.After(all[2].TakenAt) {
		t.Error("snapshots should be ordered newest first")
	}

	limited, err := s.ListSnapshots(2)
	if err != nil {
		t.Fatalf("ListSnapshots(2) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListSnapshots(2) returned %d rows; want 2", len(limited))
	}
}

// TestSnapshotItems_PreserveOrder verifies items come back in insert
// position order.
func TestSnapshotItems_PreserveOrder(t *testing.T) {
	s := newTestStore(t)

	id, err := s.InsertSnapshot(&Snapshot{
		TakenAt:      time.Now(),
		Reason:       "with items",
		SnapshotPath: "/tmp/i.json",
	})
	if err != nil {
		t.Fatalf("InsertSnapshot() failed: %v", err)
	}

	items := []string{"zsh-5.9", "firefox-122.0", "ripgrep-14.1.0"}
	if err := s.InsertSnapshotItems(id, items); err != nil {
		t.Fatalf("InsertSnapshotItems() failed: %v", err)
	}

	got, err := s.GetSnapshotItems(id)
	if err != nil {
		t.Fatalf("GetSnapshotItems() failed: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("got %d items; want %d", len(got), len(items))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Errorf("item[%d] = %q; want %q", i, got[i], items[i])
		}
	}
}

// TestInsertExecution_RoundTrip verifies an audit record survives insert
// and retrieval.
func TestInsertExecution_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	code := 0
	rec := &ExecutionRecord{
		RunID:       "run-abc",
		Kind:        "install",
		Description: "Install firefox",
		Status:      "succeeded",
		Tier:        "nix profile",
		ExitCode:    &code,
		Elapsed:     1250 * time.Millisecond,
		StartedAt:   time.Now().Truncate(time.Second),
	}
	if err := s.InsertExecution(rec); err != nil {
		t.Fatalf("InsertExecution() failed: %v", err)
	}

	recs, err := s.RecentExecutions(10)
	if err != nil {
		t.Fatalf("RecentExecutions() failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records; want 1", len(recs))
	}
	got := recs[0]
	if got.RunID != "run-abc" || got.Tier != "nix profile" || got.Status != "succeeded" {
		t.Errorf("record = %+v; fields did not round-trip", got)
	}
	if got.ExitCode == nil || *got.ExitCode != 0 {
		t.Errorf("ExitCode = %v; want 0", got.ExitCode)
	}
	if got.Elapsed != 1250*time.Millisecond {
		t.Errorf("Elapsed = %v; want 1.25s", got.Elapsed)
	}
}

// TestRecentExecutions_NewestFirst verifies audit ordering.
func TestRecentExecutions_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, status := range []string{"failed", "succeeded"} {
		err := s.InsertExecution(&ExecutionRecord{
			RunID:     "run",
			Kind:      "install",
			Status:    status,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertExecution() failed: %v", err)
		}
	}

	recs, err := s.RecentExecutions(10)
	if err != nil {
		t.Fatalf("RecentExecutions() failed: %v", err)
	}
	if recs[0].Status != "succeeded" {
		t.Errorf("first record status = %q; want the newest (succeeded)", recs[0].Status)
	}
}

// TestGenerationEvents_RoundTrip verifies watcher events persist with
// their source tag.
func TestGenerationEvents_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	gen := 17
	ev := &GenerationEvent{
		GenerationID: &gen,
		Profile:      "system",
		Source:       "external",
		ObservedAt:   time.Now().Truncate(time.Second),
	}
	if err := s.InsertGenerationEvent(ev); err != nil {
		t.Fatalf("InsertGenerationEvent() failed: %v", err)
	}

	events, err := s.RecentGenerationEvents(5)
	if err != nil {
		t.Fatalf("RecentGenerationEvents() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events; want 1", len(events))
	}
	got := events[0]
	if got.Profile != "system" || got.Source != "external" {
		t.Errorf("event = %+v; fields did not round-trip", got)
	}
	if got.GenerationID == nil || *got.GenerationID != 17 {
		t.Errorf("GenerationID = %v; want 17", got.GenerationID)
	}
}
