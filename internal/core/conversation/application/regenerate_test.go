package application

import (
	"context"
	"testing"

	"wayfinder/internal/core/conversation/domain"
	domainerrors "wayfinder/internal/core/conversation/domain/errors"
	"wayfinder/internal/core/conversation/ports"
)

type fakeLimiter struct {
	allowed bool
	err     error
}

func (f *fakeLimiter) CheckRateLimit(context.Context, string) (bool, error) {
	return f.allowed, f.err
}

func TestRegenerateRejectsWhenRateLimited(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := orch.Regenerate(ctx, "cycle-1", &fakeLimiter{allowed: false}, "session-1")
	if err != domainerrors.ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRegenerateRejectsWhenNoUserMessageExists(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := orch.Regenerate(ctx, "cycle-1", nil, "")
	if err != domainerrors.ErrNoMessageToRegenerate {
		t.Fatalf("expected ErrNoMessageToRegenerate, got %v", err)
	}
}

func TestRegenerateReplacesLastAssistantReplyWithoutDuplicatingUserMessage(t *testing.T) {
	ai := &fakeAI{response: ports.CompletionResponse{Content: "first reply"}}
	orch, _ := newOrchestrator(ai)
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := orch.Send(ctx, "cycle-1", "hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}

	ai.response = ports.CompletionResponse{Content: "regenerated reply"}
	reply, err := orch.Regenerate(ctx, "cycle-1", &fakeLimiter{allowed: true}, "session-1")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if reply != "regenerated reply" {
		t.Fatalf("expected regenerated reply, got %q", reply)
	}

	state, err := orch.Get(ctx, "cycle-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.MessageHistory) != 2 {
		t.Fatalf("expected history to still have exactly 2 messages, got %d", len(state.MessageHistory))
	}
	if state.MessageHistory[0].Content != "hello there" {
		t.Fatalf("expected user message preserved, got %q", state.MessageHistory[0].Content)
	}
	if state.MessageHistory[1].Content != "regenerated reply" {
		t.Fatalf("expected assistant message replaced with regenerated reply, got %q", state.MessageHistory[1].Content)
	}
}

func TestRegeneratePropagatesProviderFailureWithoutMutatingState(t *testing.T) {
	ai := &fakeAI{response: ports.CompletionResponse{Content: "first reply"}}
	orch, _ := newOrchestrator(ai)
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := orch.Send(ctx, "cycle-1", "hello there"); err != nil {
		t.Fatalf("send: %v", err)
	}

	ai.err = context.DeadlineExceeded
	_, err := orch.Regenerate(ctx, "cycle-1", nil, "")
	if err == nil {
		t.Fatal("expected regenerate to fail")
	}

	state, err := orch.Get(ctx, "cycle-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(state.MessageHistory) != 2 || state.MessageHistory[1].Content != "first reply" {
		t.Fatalf("expected original history preserved after failed regenerate, got %+v", state.MessageHistory)
	}
}
