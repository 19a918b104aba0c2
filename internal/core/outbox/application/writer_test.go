package application

import (
	"context"
	"testing"
	"time"

	"wayfinder/internal/core/outbox/adapters/memory"
	domainerrors "wayfinder/internal/core/outbox/domain/errors"
	"wayfinder/internal/shared/events"
)

func newEnvelope(t *testing.T, eventType events.Type, aggregateID string) events.Envelope {
	t.Helper()
	env, err := events.ToEnvelope(stubEvent{eventType: eventType, aggregateID: aggregateID}, func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	return env
}

type stubEvent struct {
	eventType   events.Type
	aggregateID string
}

func (s stubEvent) EventType() events.Type { return s.eventType }
func (s stubEvent) AggregateID() string    { return s.aggregateID }
func (s stubEvent) AggregateType() string  { return "test_aggregate" }

func TestWriterWritePersistsPendingEntry(t *testing.T) {
	store := memory.NewStore()
	w := Writer{Repo: store}

	env := newEnvelope(t, events.TypeSessionCreated, "session-1")
	id, err := w.Write(context.Background(), env, "session-1")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty entry id")
	}

	pending, err := w.GetPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending entry, got %d", len(pending))
	}
	if pending[0].EntryID != id {
		t.Fatalf("expected entry id %s, got %s", id, pending[0].EntryID)
	}
}

func TestWriterWriteRejectsInvalidEnvelope(t *testing.T) {
	store := memory.NewStore()
	w := Writer{Repo: store}

	_, err := w.Write(context.Background(), events.Envelope{}, "")
	if err != domainerrors.ErrInvalidEnvelope {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestWriterGetPendingWithZeroLimitReturnsEmpty(t *testing.T) {
	store := memory.NewStore()
	w := Writer{Repo: store}
	_, _ = w.Write(context.Background(), newEnvelope(t, events.TypeSessionCreated, "session-1"), "session-1")

	pending, err := w.GetPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty slice, got %d entries", len(pending))
	}
}

func TestWriterWriteBatchIsAllOrNothing(t *testing.T) {
	store := memory.NewStore()
	w := Writer{Repo: store}

	envelopes := []events.Envelope{
		newEnvelope(t, events.TypeSessionCreated, "session-1"),
		{},
	}
	_, err := w.WriteBatch(context.Background(), envelopes, "session-1")
	if err != domainerrors.ErrInvalidEnvelope {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}

	pending, err := w.GetPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no entries written on partial failure, got %d", len(pending))
	}
}
