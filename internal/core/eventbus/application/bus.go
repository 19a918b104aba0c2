package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wayfinder/internal/core/eventbus/ports"
	"wayfinder/internal/shared/events"
)

// Bus is the in-process publish/subscribe event bus. It
// satisfies outbox/ports.EventPublisher structurally, so the outbox
// publisher can drive it without either package importing the other.
type Bus struct {
	mu       sync.RWMutex
	handlers map[events.Type][]ports.Handler
	Logger   *slog.Logger

	metricsMu sync.Mutex
	dispatched map[string]int
	failed     map[string]int
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers:   make(map[events.Type][]ports.Handler),
		Logger:     logger,
		dispatched: make(map[string]int),
		failed:     make(map[string]int),
	}
}

// Subscribe registers handler for a single event type.
func (b *Bus) Subscribe(eventType events.Type, handler ports.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll registers handler for every type listed.
func (b *Bus) SubscribeAll(eventTypes []events.Type, handler ports.Handler) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Publish synchronously dispatches envelope to every handler subscribed to
// its event_type. Dispatch is isolated per handler: one handler's error
// (or panic) never prevents the others from running, and is never
// propagated to the caller — it is logged and counted instead.
func (b *Bus) Publish(ctx context.Context, envelope events.Envelope) error {
	logger := resolveLogger(b.Logger)

	b.mu.RLock()
	subscribed := append([]ports.Handler(nil), b.handlers[envelope.EventType]...)
	b.mu.RUnlock()

	if len(subscribed) == 0 {
		logger.Debug("eventbus publish with no subscribers",
			"event", "eventbus_no_subscribers",
			"module", "core/eventbus",
			"layer", "application",
			"event_type", string(envelope.EventType),
			"event_id", envelope.EventID,
		)
		return nil
	}

	for _, handler := range subscribed {
		b.dispatchOne(ctx, handler, envelope, logger)
	}
	return nil
}

func (b *Bus) dispatchOne(ctx context.Context, handler ports.Handler, envelope events.Envelope, logger *slog.Logger) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.recordResult(handler.Name(), fmt.Errorf("panic: %v", r))
			logger.Error("eventbus handler panicked",
				"event", "eventbus_handler_panic",
				"module", "core/eventbus",
				"layer", "application",
				"handler", handler.Name(),
				"event_id", envelope.EventID,
				"event_type", string(envelope.EventType),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()

	err := handler.Handle(ctx, envelope)
	b.recordResult(handler.Name(), err)
	if err != nil {
		logger.Warn("eventbus handler failed",
			"event", "eventbus_handler_failed",
			"module", "core/eventbus",
			"layer", "application",
			"handler", handler.Name(),
			"event_id", envelope.EventID,
			"event_type", string(envelope.EventType),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	logger.Debug("eventbus handler succeeded",
		"event", "eventbus_handler_succeeded",
		"module", "core/eventbus",
		"layer", "application",
		"handler", handler.Name(),
		"event_id", envelope.EventID,
		"event_type", string(envelope.EventType),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PublishAll publishes each envelope in order; there is no atomicity
// guarantee across handlers or across envelopes.
func (b *Bus) PublishAll(ctx context.Context, envelopes []events.Envelope) error {
	for _, e := range envelopes {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// HandlerCounts returns a snapshot of (dispatched, failed) counts per
// handler name, for metrics exposition.
func (b *Bus) HandlerCounts() (dispatched, failed map[string]int) {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	dispatched = make(map[string]int, len(b.dispatched))
	failed = make(map[string]int, len(b.failed))
	for k, v := range b.dispatched {
		dispatched[k] = v
	}
	for k, v := range b.failed {
		failed[k] = v
	}
	return dispatched, failed
}

func (b *Bus) recordResult(handlerName string, err error) {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	b.dispatched[handlerName]++
	if err != nil {
		b.failed[handlerName]++
	}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
