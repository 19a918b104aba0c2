// Package ports declares the webhook idempotency store's capability set.
package ports

import (
	"context"
	"time"

	"wayfinder/internal/core/resilience/webhookidempotency/domain"
)

// Store is the full read/write/retention contract. save MUST rely on a
// database-level unique constraint on event_id so two concurrent deliveries
// of the same webhook race deterministically: exactly one sees Inserted,
// the other AlreadyExists.
type Store interface {
	FindByEventID(ctx context.Context, eventID string) (domain.Record, bool, error)
	Save(ctx context.Context, record domain.Record) (domain.SaveOutcome, error)
	DeleteBefore(ctx context.Context, ts time.Time) (int, error)
}
