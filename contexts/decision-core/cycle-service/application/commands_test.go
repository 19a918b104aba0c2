package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wayfinder/contexts/decision-core/cycle-service/adapters/memory"
	"wayfinder/contexts/decision-core/cycle-service/domain"
	domainerrors "wayfinder/contexts/decision-core/cycle-service/domain/errors"
	"wayfinder/internal/shared/events"
)

type fakeOutbox struct {
	written []events.Envelope
	err     error
}

func (f *fakeOutbox) Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, envelope)
	return envelope.EventID, nil
}

func newService(t *testing.T, ids []string) (*Service, *memory.Store, *fakeOutbox) {
	t.Helper()
	store := memory.NewStore()
	outbox := &fakeOutbox{}
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	idx := 0
	svc := Service{
		Cycles: store,
		Outbox: outbox,
		IDs: func() string {
			id := ids[idx]
			idx++
			return id
		},
		Clock: func() time.Time { return fixed },
	}
	return &svc, store, outbox
}

func TestCreateCyclePublishesCycleCreated(t *testing.T) {
	svc, _, outbox := newService(t, []string{"cycle-1"})

	cycle, err := svc.CreateCycle(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	if cycle.CycleID != "cycle-1" || cycle.SessionID != "session-1" {
		t.Fatalf("unexpected cycle: %+v", cycle)
	}
	if len(outbox.written) != 1 {
		t.Fatalf("expected 1 event, got %d", len(outbox.written))
	}
	if outbox.written[0].EventType != events.TypeCycleCreated {
		t.Fatalf("expected cycle.created, got %s", outbox.written[0].EventType)
	}
}

func TestBranchCycleRefusesUnstartedBranchPoint(t *testing.T) {
	svc, store, _ := newService(t, []string{"parent", "child"})
	ctx := context.Background()

	if _, err := svc.CreateCycle(ctx, "session-1"); err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	_ = store

	_, err := svc.BranchCycle(ctx, "parent", domain.ComponentAlternatives)
	if err == nil {
		t.Fatalf("expected an error branching at an unstarted component")
	}
}

func TestBranchCyclePublishesCycleBranched(t *testing.T) {
	svc, _, outbox := newService(t, []string{"parent", "child"})
	ctx := context.Background()

	if _, err := svc.CreateCycle(ctx, "session-1"); err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}

	child, err := svc.BranchCycle(ctx, "parent", domain.ComponentIssueRaising)
	if err != nil {
		t.Fatalf("BranchCycle: %v", err)
	}
	if child.CycleID != "child" || child.ParentCycleID == nil || *child.ParentCycleID != "parent" {
		t.Fatalf("unexpected child: %+v", child)
	}
	if len(outbox.written) != 2 {
		t.Fatalf("expected 2 events, got %d", len(outbox.written))
	}
	if outbox.written[1].EventType != events.TypeCycleBranched {
		t.Fatalf("expected cycle.branched, got %s", outbox.written[1].EventType)
	}
}

func TestCompleteComponentPublishesComponentCompleted(t *testing.T) {
	svc, _, outbox := newService(t, []string{"cycle-1"})
	ctx := context.Background()

	if _, err := svc.CreateCycle(ctx, "session-1"); err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}

	cycle, err := svc.CompleteComponent(ctx, "cycle-1", domain.ComponentIssueRaising, json.RawMessage(`{"ok":true}`))
	if err != nil {
		t.Fatalf("CompleteComponent: %v", err)
	}
	if cycle.Components[domain.ComponentIssueRaising].Status != domain.ComponentCompleted {
		t.Fatalf("expected completed status")
	}
	if len(outbox.written) != 2 {
		t.Fatalf("expected 2 events, got %d", len(outbox.written))
	}
	if outbox.written[1].EventType != events.TypeComponentCompleted {
		t.Fatalf("expected component.completed, got %s", outbox.written[1].EventType)
	}
}

func TestCompleteComponentRefusesDoubleCompletion(t *testing.T) {
	svc, _, _ := newService(t, []string{"cycle-1"})
	ctx := context.Background()

	if _, err := svc.CreateCycle(ctx, "session-1"); err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	if _, err := svc.CompleteComponent(ctx, "cycle-1", domain.ComponentIssueRaising, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("CompleteComponent: %v", err)
	}

	_, err := svc.CompleteComponent(ctx, "cycle-1", domain.ComponentIssueRaising, json.RawMessage(`{}`))
	if !errors.Is(err, domainerrors.ErrComponentAlreadyCompleted) {
		t.Fatalf("expected already-completed error, got %v", err)
	}
}
