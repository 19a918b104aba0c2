package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfinder/internal/core/conversation/adapters/agentspecs"
	"wayfinder/internal/core/conversation/adapters/memory"
	"wayfinder/internal/core/conversation/domain"
	domainerrors "wayfinder/internal/core/conversation/domain/errors"
	"wayfinder/internal/core/conversation/ports"
)

type fakeAI struct {
	response ports.CompletionResponse
	err      error
	calls    []ports.CompletionRequest
}

func (f *fakeAI) Complete(_ context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return ports.CompletionResponse{}, f.err
	}
	return f.response, nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func newOrchestrator(ai ports.AIClient) (Orchestrator, *memory.Store) {
	store := memory.NewStore()
	return Orchestrator{
		Storage: store,
		Specs:   agentspecs.NewRegistry(),
		AI:      ai,
		Clock:   fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	}, store
}

func TestStartCreatesFreshState(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})

	state, err := orch.Start(context.Background(), "cycle-1", "session-1", domain.ComponentIssueRaising)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.CurrentStep != domain.ComponentIssueRaising {
		t.Fatalf("expected current step %s, got %s", domain.ComponentIssueRaising, state.CurrentStep)
	}
}

func TestStartRejectsAlreadyStartedCycle(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()

	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising)
	if err != domainerrors.ErrCycleAlreadyStarted {
		t.Fatalf("expected ErrCycleAlreadyStarted, got %v", err)
	}
}

func TestSendAppendsBothMessagesOnSuccess(t *testing.T) {
	ai := &fakeAI{response: ports.CompletionResponse{Content: "assistant reply"}}
	orch, _ := newOrchestrator(ai)
	ctx := context.Background()

	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	reply, err := orch.Send(ctx, "cycle-1", "hello there")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "assistant reply" {
		t.Fatalf("expected assistant reply, got %q", reply)
	}

	state, err := orch.Get(ctx, "cycle-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.MessageHistory) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(state.MessageHistory))
	}
	if state.MessageHistory[0].Role != domain.RoleUser || state.MessageHistory[0].Content != "hello there" {
		t.Fatalf("unexpected first message: %+v", state.MessageHistory[0])
	}
	if state.MessageHistory[1].Role != domain.RoleAssistant || state.MessageHistory[1].Content != "assistant reply" {
		t.Fatalf("unexpected second message: %+v", state.MessageHistory[1])
	}
}

func TestSendLeavesStateUnchangedOnFailure(t *testing.T) {
	ai := &fakeAI{err: errors.New("provider unavailable")}
	orch, _ := newOrchestrator(ai)
	ctx := context.Background()

	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := orch.Send(ctx, "cycle-1", "hello there")
	if err == nil {
		t.Fatal("expected send to fail")
	}

	state, err := orch.Get(ctx, "cycle-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.MessageHistory) != 0 {
		t.Fatalf("expected no messages persisted after a failed send, got %d", len(state.MessageHistory))
	}
}

func TestRouteIntentContinueIsANoOpTransition(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	step, err := orch.RouteIntent(ctx, "cycle-1", Intent{Kind: IntentContinue})
	if err != nil {
		t.Fatalf("route intent: %v", err)
	}
	if step != domain.ComponentIssueRaising {
		t.Fatalf("expected current step unchanged at %s, got %s", domain.ComponentIssueRaising, step)
	}
}

func TestRouteIntentCompleteAdvancesStep(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	step, err := orch.RouteIntent(ctx, "cycle-1", Intent{Kind: IntentComplete})
	if err != nil {
		t.Fatalf("route intent: %v", err)
	}
	if step != domain.ComponentProblemFrame {
		t.Fatalf("expected current step %s, got %s", domain.ComponentProblemFrame, step)
	}
}

func TestRouteIntentNavigateRejectsInvalidTransition(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := orch.RouteIntent(ctx, "cycle-1", Intent{Kind: IntentNavigate, Target: domain.ComponentAlternatives})
	if err != domainerrors.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := orch.End(ctx, "cycle-1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := orch.End(ctx, "cycle-1"); err != nil {
		t.Fatalf("expected ending an already-ended cycle to be a no-op, got %v", err)
	}

	if _, err := orch.Get(ctx, "cycle-1"); err != domainerrors.ErrCycleNotFound {
		t.Fatalf("expected ErrCycleNotFound after end, got %v", err)
	}
}
