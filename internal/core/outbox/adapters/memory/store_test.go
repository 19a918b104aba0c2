package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfinder/internal/core/outbox/ports"
	"wayfinder/internal/shared/events"
)

type testEvent struct{ id string }

func (e testEvent) EventType() events.Type { return events.TypeSessionCreated }
func (e testEvent) AggregateID() string    { return e.id }
func (e testEvent) AggregateType() string  { return "session" }

func mustEnvelope(t *testing.T, id string) events.Envelope {
	t.Helper()
	env, err := events.ToEnvelope(testEvent{id: id}, time.Now)
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

func TestGetPendingClaimsRowsSoConcurrentCallersDontDoubleBook(t *testing.T) {
	store := NewStore()
	id, err := store.Write(context.Background(), mustEnvelope(t, "a"), "a")
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	first, err := store.GetPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("first get pending: %v", err)
	}
	if len(first) != 1 || first[0].EntryID != id {
		t.Fatalf("expected the written entry to be claimed, got %+v", first)
	}

	second, err := store.GetPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("second get pending: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no entries on second claim, got %d", len(second))
	}
}

func TestMarkFailedIsTerminalAndIdempotent(t *testing.T) {
	store := NewStore()
	id, err := store.Write(context.Background(), mustEnvelope(t, "a"), "a")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.GetPending(context.Background(), 10); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := store.MarkFailed(context.Background(), id, errors.New("boom")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkFailed(context.Background(), id, errors.New("boom again")); err != nil {
		t.Fatalf("re-mark failed: %v", err)
	}

	r, ok := store.rows[id]
	if !ok {
		t.Fatal("entry disappeared")
	}
	if r.entry.Status != ports.StatusFailed {
		t.Fatalf("expected Failed status, got %s", r.entry.Status)
	}
	if r.entry.Attempts != 2 {
		t.Fatalf("expected attempts=2, got %d", r.entry.Attempts)
	}
	if r.entry.LastError != "boom again" {
		t.Fatalf("expected last_error to refresh, got %q", r.entry.LastError)
	}

	pending, err := store.GetPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected failed entries to never reappear as pending, got %d", len(pending))
	}
}

func TestMarkPublishedIsIdempotent(t *testing.T) {
	store := NewStore()
	id, err := store.Write(context.Background(), mustEnvelope(t, "a"), "a")
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := store.MarkPublished(context.Background(), id); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	if err := store.MarkPublished(context.Background(), id); err != nil {
		t.Fatalf("re-mark published: %v", err)
	}

	r := store.rows[id]
	if r.entry.Status != ports.StatusPublished {
		t.Fatalf("expected Published status, got %s", r.entry.Status)
	}
}

func TestCleanupOldRemovesOnlyOldPublishedEntries(t *testing.T) {
	store := NewStore()
	recentID, _ := store.Write(context.Background(), mustEnvelope(t, "recent"), "recent")
	oldID, _ := store.Write(context.Background(), mustEnvelope(t, "old"), "old")

	_ = store.MarkPublished(context.Background(), recentID)
	_ = store.MarkPublished(context.Background(), oldID)
	store.rows[oldID].entry.ProcessedAt = timePtr(time.Now().UTC().Add(-48 * time.Hour))

	removed, err := store.CleanupOld(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := store.rows[recentID]; !ok {
		t.Fatal("recent entry should survive cleanup")
	}
	if _, ok := store.rows[oldID]; ok {
		t.Fatal("old entry should have been removed")
	}
}

func timePtr(t time.Time) *time.Time { return &t }
