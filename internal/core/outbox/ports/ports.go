// Package ports declares the capability sets the outbox writer and
// publisher depend on.
package ports

import (
	"context"
	"time"

	"wayfinder/internal/shared/events"
)

// Status is the outbox entry lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Entry is a persisted outbox row. Only Status, ProcessedAt, Attempts, and
// LastError may change after creation; Envelope and PartitionKey are fixed
// at write time.
type Entry struct {
	EntryID      string
	Envelope     events.Envelope
	PartitionKey string
	Status       Status
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	Attempts     uint32
	LastError    string
}

// Repository is the persistence port the outbox writer and publisher share.
// An implementation backed by a real database MUST make GetPending treat
// returned rows as claimed (row lock with SKIP LOCKED, or an atomic status
// transition) so that concurrent publisher instances never process the same
// entry twice.
type Repository interface {
	Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error)
	WriteBatch(ctx context.Context, envelopes []events.Envelope, partitionKey string) ([]string, error)
	GetPending(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, entryID string) error
	MarkFailed(ctx context.Context, entryID string, cause error) error
	CleanupOld(ctx context.Context, olderThan time.Duration) (int, error)
}

// EventPublisher is the narrow slice of the event bus the outbox publisher
// drives. It is satisfied structurally by eventbus.Bus — the outbox package
// never imports eventbus, keeping the dependency direction one-way.
type EventPublisher interface {
	Publish(ctx context.Context, envelope events.Envelope) error
}

// Clock abstracts time.Now so tests can control created_at/processed_at.
type Clock interface {
	Now() time.Time
}
