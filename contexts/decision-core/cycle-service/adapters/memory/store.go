// Package memory is an in-process ports.CycleRepository and ports.CycleReader,
// for tests and single-instance deployments.
package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"wayfinder/contexts/decision-core/cycle-service/domain"
	domainerrors "wayfinder/contexts/decision-core/cycle-service/domain/errors"
	"wayfinder/contexts/decision-core/cycle-service/ports"
)

type Store struct {
	mu     sync.RWMutex
	cycles map[string]domain.Cycle
}

func NewStore() *Store {
	return &Store{cycles: make(map[string]domain.Cycle)}
}

func (s *Store) Save(_ context.Context, cycle domain.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles[strings.TrimSpace(cycle.CycleID)] = cloneCycle(cycle)
	return nil
}

func (s *Store) Find(_ context.Context, cycleID string) (domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cycle, ok := s.cycles[strings.TrimSpace(cycleID)]
	if !ok {
		return domain.Cycle{}, domainerrors.ErrCycleNotFound
	}
	return cloneCycle(cycle), nil
}

func (s *Store) Delete(_ context.Context, cycleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cycles, strings.TrimSpace(cycleID))
	return nil
}

func (s *Store) FindBySession(_ context.Context, sessionID string) ([]domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Cycle
	for _, cycle := range s.cycles {
		if cycle.SessionID == sessionID {
			out = append(out, cloneCycle(cycle))
		}
	}
	return out, nil
}

func (s *Store) FindBranches(_ context.Context, parentCycleID string) ([]domain.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Cycle
	for _, cycle := range s.cycles {
		if cycle.ParentCycleID != nil && *cycle.ParentCycleID == parentCycleID {
			out = append(out, cloneCycle(cycle))
		}
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, cycleID string) (domain.Cycle, error) {
	return s.Find(ctx, cycleID)
}

func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]domain.Cycle, error) {
	return s.FindBySession(ctx, sessionID)
}

// GetTree assembles a branch tree rooted at rootCycleID by walking
// FindBranches recursively. Built externally from parent-pointer storage
// rather than held as in-memory owning references, per this cyclic/
// graph-data design note.
func (s *Store) GetTree(ctx context.Context, rootCycleID string) (ports.TreeNode, error) {
	root, err := s.Find(ctx, rootCycleID)
	if err != nil {
		return ports.TreeNode{}, err
	}
	return s.buildTree(ctx, root)
}

func (s *Store) buildTree(ctx context.Context, cycle domain.Cycle) (ports.TreeNode, error) {
	branches, err := s.FindBranches(ctx, cycle.CycleID)
	if err != nil {
		return ports.TreeNode{}, err
	}
	node := ports.TreeNode{Cycle: cycle}
	for _, branch := range branches {
		child, err := s.buildTree(ctx, branch)
		if err != nil {
			return ports.TreeNode{}, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func (s *Store) GetProgress(ctx context.Context, cycleID string) (ports.Progress, error) {
	cycle, err := s.Find(ctx, cycleID)
	if err != nil {
		return ports.Progress{}, err
	}
	completed, total := cycle.Progress()
	progress := ports.Progress{CompletedComponents: completed, TotalComponents: total}
	for _, c := range domain.Order {
		if cycle.Components[c].Status == domain.ComponentInProgress {
			progress.CurrentlyActive = append(progress.CurrentlyActive, c)
		}
	}
	return progress, nil
}

func (s *Store) GetComponentOutput(ctx context.Context, cycleID string, component string) (json.RawMessage, error) {
	cycle, err := s.Find(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	slot, ok := cycle.Components[domain.Component(component)]
	if !ok {
		return nil, domainerrors.ErrComponentNotFound
	}
	return slot.Output, nil
}

func cloneCycle(c domain.Cycle) domain.Cycle {
	slots := make(map[domain.Component]domain.ComponentSlot, len(c.Components))
	for k, v := range c.Components {
		cloned := v
		cloned.Output = append(json.RawMessage(nil), v.Output...)
		slots[k] = cloned
	}
	out := c
	out.Components = slots
	if c.ParentCycleID != nil {
		parent := *c.ParentCycleID
		out.ParentCycleID = &parent
	}
	if c.BranchPoint != nil {
		bp := *c.BranchPoint
		out.BranchPoint = &bp
	}
	return out
}
