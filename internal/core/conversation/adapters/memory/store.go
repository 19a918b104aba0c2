// Package memory is an in-process ports.StateStorage, for tests and
// single-instance deployments.
package memory

import (
	"context"
	"strings"
	"sync"

	"wayfinder/internal/core/conversation/domain"
	domainerrors "wayfinder/internal/core/conversation/domain/errors"
)

type Store struct {
	mu     sync.RWMutex
	states map[string]domain.State
}

func NewStore() *Store {
	return &Store{states: make(map[string]domain.State)}
}

func (s *Store) Load(_ context.Context, cycleID string) (domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[strings.TrimSpace(cycleID)]
	if !ok {
		return domain.State{}, domainerrors.ErrCycleNotFound
	}
	return cloneState(state), nil
}

func (s *Store) Save(_ context.Context, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[strings.TrimSpace(state.CycleID)] = cloneState(state)
	return nil
}

func (s *Store) Exists(_ context.Context, cycleID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.states[strings.TrimSpace(cycleID)]
	return ok, nil
}

func (s *Store) Delete(_ context.Context, cycleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, strings.TrimSpace(cycleID))
	return nil
}

func cloneState(state domain.State) domain.State {
	statuses := make(map[domain.Component]domain.Status, len(state.ComponentStatus))
	for k, v := range state.ComponentStatus {
		statuses[k] = v
	}
	return domain.State{
		CycleID:         state.CycleID,
		SessionID:       state.SessionID,
		CurrentStep:     state.CurrentStep,
		ComponentStatus: statuses,
		MessageHistory:  append([]domain.Message(nil), state.MessageHistory...),
		CreatedAt:       state.CreatedAt,
		UpdatedAt:       state.UpdatedAt,
	}
}
