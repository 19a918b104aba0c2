// Package memory is an in-process ports.Repository, useful for tests and
// single-instance deployments. It simulates the claim semantics a real
// database gives via SKIP LOCKED by marking rows "claimed" under the same
// lock that reads them, so GetPending never hands the same pending entry to
// two concurrent callers.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "wayfinder/internal/core/outbox/domain/errors"
	"wayfinder/internal/core/outbox/ports"
	"wayfinder/internal/shared/events"

	"github.com/google/uuid"
)

type row struct {
	entry   ports.Entry
	claimed bool
}

type Store struct {
	mu   sync.Mutex
	rows map[string]*row
}

func NewStore() *Store {
	return &Store{rows: make(map[string]*row)}
}

func (s *Store) Write(_ context.Context, envelope events.Envelope, partitionKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.rows[id] = &row{entry: ports.Entry{
		EntryID:      id,
		Envelope:     envelope,
		PartitionKey: partitionKey,
		Status:       ports.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}}
	return id, nil
}

func (s *Store) WriteBatch(ctx context.Context, envelopes []events.Envelope, partitionKey string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(envelopes))
	now := time.Now().UTC()
	for _, e := range envelopes {
		id := uuid.NewString()
		s.rows[id] = &row{entry: ports.Entry{
			EntryID:      id,
			Envelope:     e,
			PartitionKey: partitionKey,
			Status:       ports.StatusPending,
			CreatedAt:    now,
		}}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetPending returns up to limit Pending, unclaimed entries in ascending
// created_at order and marks them claimed so a concurrent call cannot also
// return them. A claimed entry that is never marked published or failed
// (e.g. the caller crashed) stays claimed for the life of the process — this
// in-memory store has no lease expiry, unlike the postgres adapter's
// SKIP LOCKED transaction which releases its lock on rollback.
func (s *Store) GetPending(_ context.Context, limit int) ([]ports.Entry, error) {
	if limit <= 0 {
		return []ports.Entry{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]*row, 0)
	for _, r := range s.rows {
		if r.entry.Status == ports.StatusPending && !r.claimed {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].entry.CreatedAt.Before(candidates[j].entry.CreatedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]ports.Entry, 0, len(candidates))
	for _, r := range candidates {
		r.claimed = true
		out = append(out, r.entry)
	}
	return out, nil
}

func (s *Store) MarkPublished(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[strings.TrimSpace(entryID)]
	if !ok {
		return domainerrors.ErrEntryNotFound
	}
	now := time.Now().UTC()
	r.entry.Status = ports.StatusPublished
	r.entry.ProcessedAt = &now
	return nil
}

// MarkFailed is a terminal state update: the entry moves to Failed and stays
// there. Re-marking an already-Failed entry just refreshes last_error and
// bumps attempts, per the idempotent contract. A Published entry is left
// untouched — Published never un-publishes, regardless of call order.
func (s *Store) MarkFailed(_ context.Context, entryID string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[strings.TrimSpace(entryID)]
	if !ok {
		return domainerrors.ErrEntryNotFound
	}
	if r.entry.Status == ports.StatusPublished {
		return nil
	}
	r.entry.Attempts++
	r.entry.Status = ports.StatusFailed
	if cause != nil {
		r.entry.LastError = cause.Error()
	}
	return nil
}

func (s *Store) CleanupOld(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	removed := 0
	for id, r := range s.rows {
		if r.entry.Status == ports.StatusPublished && r.entry.ProcessedAt != nil && r.entry.ProcessedAt.Before(cutoff) {
			delete(s.rows, id)
			removed++
		}
	}
	return removed, nil
}
