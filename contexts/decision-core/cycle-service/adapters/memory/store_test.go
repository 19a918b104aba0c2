package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wayfinder/contexts/decision-core/cycle-service/domain"
)

func TestSaveAndFindRoundTrips(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cycle := domain.NewCycle("cycle-1", "session-1", now)

	if err := store.Save(ctx, cycle); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Find(ctx, "cycle-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.SessionID != "session-1" {
		t.Fatalf("expected session-1, got %q", got.SessionID)
	}
	if got.Components[domain.ComponentIssueRaising].Status != domain.ComponentInProgress {
		t.Fatalf("expected first component InProgress")
	}
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	store := NewStore()
	if _, err := store.Find(context.Background(), "nope"); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestFindBranchesReturnsOnlyDirectChildren(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	parent := domain.NewCycle("parent", "session-1", now)
	parent, err := parent.CompleteComponent(domain.ComponentIssueRaising, json.RawMessage(`{}`), now)
	if err != nil {
		t.Fatalf("CompleteComponent: %v", err)
	}
	mustSave(t, store, parent)

	child, err := parent.Branch("child", domain.ComponentIssueRaising, now)
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	mustSave(t, store, child)
	mustSave(t, store, domain.NewCycle("unrelated", "session-2", now))

	branches, err := store.FindBranches(ctx, "parent")
	if err != nil {
		t.Fatalf("FindBranches: %v", err)
	}
	if len(branches) != 1 || branches[0].CycleID != "child" {
		t.Fatalf("expected exactly [child], got %+v", branches)
	}
}

func TestGetTreeAssemblesNestedChildren(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	root := domain.NewCycle("root", "session-1", now)
	root, _ = root.CompleteComponent(domain.ComponentIssueRaising, json.RawMessage(`{}`), now)
	mustSave(t, store, root)

	branch1, err := root.Branch("branch-1", domain.ComponentIssueRaising, now)
	if err != nil {
		t.Fatalf("Branch: %v", err)
	}
	mustSave(t, store, branch1)

	tree, err := store.GetTree(ctx, "root")
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if tree.Cycle.CycleID != "root" {
		t.Fatalf("expected root node")
	}
	if len(tree.Children) != 1 || tree.Children[0].Cycle.CycleID != "branch-1" {
		t.Fatalf("expected one child branch-1, got %+v", tree.Children)
	}
}

func TestGetComponentOutputReturnsStoredBytes(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	cycle := domain.NewCycle("cycle-1", "session-1", now)
	cycle, err := cycle.CompleteComponent(domain.ComponentIssueRaising, json.RawMessage(`{"notes":"x"}`), now)
	if err != nil {
		t.Fatalf("CompleteComponent: %v", err)
	}
	mustSave(t, store, cycle)

	out, err := store.GetComponentOutput(ctx, "cycle-1", string(domain.ComponentIssueRaising))
	if err != nil {
		t.Fatalf("GetComponentOutput: %v", err)
	}
	if string(out) != `{"notes":"x"}` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func mustSave(t *testing.T, store *Store, cycle domain.Cycle) {
	t.Helper()
	if err := store.Save(context.Background(), cycle); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
