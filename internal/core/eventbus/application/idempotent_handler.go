package application

import (
	"context"
	"log/slog"

	"wayfinder/internal/core/eventbus/ports"
	"wayfinder/internal/shared/events"
)

// IdempotentHandler wraps a ports.Handler with the processed-event marker
// check required by this handler contract: before side-effecting
// work, consult the marker store keyed by (event_id, handler_name); if
// already present, return success without re-work; after successful work,
// record the marker.
type IdempotentHandler struct {
	Inner  ports.Handler
	Store  ports.ProcessedEventStore
	Logger *slog.Logger
}

func (h IdempotentHandler) Name() string { return h.Inner.Name() }

func (h IdempotentHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	logger := resolveLogger(h.Logger)
	name := h.Inner.Name()

	processed, err := h.Store.IsProcessed(ctx, envelope.EventID, name)
	if err != nil {
		return err
	}
	if processed {
		logger.Debug("eventbus handler replay skipped",
			"event", "eventbus_handler_replay_skipped",
			"module", "core/eventbus",
			"layer", "application",
			"handler", name,
			"event_id", envelope.EventID,
		)
		return nil
	}

	if err := h.Inner.Handle(ctx, envelope); err != nil {
		return err
	}
	return h.Store.MarkProcessed(ctx, envelope.EventID, name)
}

// HandlerFunc adapts a plain function plus a stable name into a
// ports.Handler, for one-off handlers without a dedicated type (analysis
// triggers and usage tracking each have their own handler types).
type HandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, envelope events.Envelope) error
}

func (f HandlerFunc) Name() string { return f.HandlerName }

func (f HandlerFunc) Handle(ctx context.Context, envelope events.Envelope) error {
	return f.Fn(ctx, envelope)
}
