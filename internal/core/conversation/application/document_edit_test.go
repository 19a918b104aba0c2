package application

import (
	"context"
	"testing"

	"wayfinder/internal/core/conversation/domain"
)

type fakeReconciler struct {
	complete bool
	err      error
}

func (f *fakeReconciler) Reconcile(context.Context, domain.Component, string) (bool, error) {
	return f.complete, f.err
}

func TestApplyDocumentEditSavesWithoutAdvancingWhenIncomplete(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	state, err := orch.ApplyDocumentEdit(ctx, "cycle-1", &fakeReconciler{complete: false}, "partial edit")
	if err != nil {
		t.Fatalf("apply document edit: %v", err)
	}
	if state.CurrentStep != domain.ComponentIssueRaising {
		t.Fatalf("expected current step unchanged, got %s", state.CurrentStep)
	}
	if state.ComponentStatus[domain.ComponentIssueRaising] != domain.StatusInProgress {
		t.Fatalf("expected component still InProgress, got %s", state.ComponentStatus[domain.ComponentIssueRaising])
	}
}

func TestApplyDocumentEditAdvancesWhenReconcilerReportsComplete(t *testing.T) {
	orch, _ := newOrchestrator(&fakeAI{})
	ctx := context.Background()
	if _, err := orch.Start(ctx, "cycle-1", "session-1", domain.ComponentIssueRaising); err != nil {
		t.Fatalf("start: %v", err)
	}

	state, err := orch.ApplyDocumentEdit(ctx, "cycle-1", &fakeReconciler{complete: true}, "full edit")
	if err != nil {
		t.Fatalf("apply document edit: %v", err)
	}
	if state.ComponentStatus[domain.ComponentIssueRaising] != domain.StatusCompleted {
		t.Fatalf("expected component Completed, got %s", state.ComponentStatus[domain.ComponentIssueRaising])
	}
	if state.CurrentStep != domain.ComponentProblemFrame {
		t.Fatalf("expected current step to advance to %s, got %s", domain.ComponentProblemFrame, state.CurrentStep)
	}
}
