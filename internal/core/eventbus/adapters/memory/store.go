// Package memory is an in-process ports.ProcessedEventStore, suitable for
// tests and single-instance deployments.
package memory

import (
	"context"
	"sync"
)

type markerKey struct {
	eventID     string
	handlerName string
}

type Store struct {
	mu      sync.Mutex
	markers map[markerKey]struct{}
}

func NewStore() *Store {
	return &Store{markers: make(map[markerKey]struct{})}
}

func (s *Store) IsProcessed(_ context.Context, eventID, handlerName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.markers[markerKey{eventID: eventID, handlerName: handlerName}]
	return ok, nil
}

func (s *Store) MarkProcessed(_ context.Context, eventID, handlerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[markerKey{eventID: eventID, handlerName: handlerName}] = struct{}{}
	return nil
}
