// Package memory implements ports.Repository with an in-process map, for
// tests and local development.
package memory

import (
	"context"
	"sync"

	"wayfinder/contexts/billing/membership-service/domain"
	domainerrors "wayfinder/contexts/billing/membership-service/domain/errors"
)

type Store struct {
	mu       sync.RWMutex
	byUserID map[string]domain.Membership
}

func NewStore() *Store {
	return &Store{byUserID: make(map[string]domain.Membership)}
}

func (s *Store) FindByCustomerID(ctx context.Context, customerID string) (domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, membership := range s.byUserID {
		if membership.PaymentCustomerID == customerID {
			return membership, nil
		}
	}
	return domain.Membership{}, domainerrors.ErrMembershipNotFound
}

func (s *Store) Save(ctx context.Context, membership domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUserID[membership.UserID] = membership
	return nil
}

func (s *Store) FindByUserID(ctx context.Context, userID string) (domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	membership, ok := s.byUserID[userID]
	if !ok {
		return domain.Membership{}, domainerrors.ErrMembershipNotFound
	}
	return membership, nil
}

func (s *Store) Update(ctx context.Context, membership domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUserID[membership.UserID]; !ok {
		return domainerrors.ErrMembershipNotFound
	}
	s.byUserID[membership.UserID] = membership
	return nil
}
