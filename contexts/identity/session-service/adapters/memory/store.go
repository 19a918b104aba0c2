// Package memory implements ports.Repository with an in-process map, for
// tests and local development.
package memory

import (
	"context"
	"sync"

	"wayfinder/contexts/identity/session-service/domain"
	domainerrors "wayfinder/contexts/identity/session-service/domain/errors"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]domain.Session)}
}

func (s *Store) Save(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
	return nil
}

func (s *Store) Find(ctx context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domainerrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
