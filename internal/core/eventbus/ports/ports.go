// Package ports declares the capability sets the event bus depends on.
package ports

import (
	"context"
	"time"

	"wayfinder/internal/shared/events"
)

// Handler is the polymorphic handler capability set subscribers implement.
// Name is stable and used both as the processed-event marker key and as a
// metrics label.
type Handler interface {
	Name() string
	Handle(ctx context.Context, envelope events.Envelope) error
}

// ProcessedEventStore is the idempotency marker store handlers consult
// before side-effecting work, keyed by (event_id, handler_name).
type ProcessedEventStore interface {
	// IsProcessed reports whether (eventID, handlerName) has already been
	// recorded.
	IsProcessed(ctx context.Context, eventID, handlerName string) (bool, error)
	// MarkProcessed records (eventID, handlerName) as done. Idempotent.
	MarkProcessed(ctx context.Context, eventID, handlerName string) error
}

// DispatchResult reports the outcome of invoking one handler for one
// envelope, for logging and metrics.
type DispatchResult struct {
	HandlerName string
	EventID     string
	EventType   events.Type
	Err         error
	Duration    time.Duration
}
