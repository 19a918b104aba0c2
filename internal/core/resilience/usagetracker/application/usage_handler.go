// Package application implements the usage tracker's event handler: an
// eventbus.ports.Handler that records cost for every completed AI call.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	llmdomain "wayfinder/internal/core/llm/domain"
	"wayfinder/internal/core/resilience/usagetracker/domain"
	"wayfinder/internal/core/resilience/usagetracker/ports"
	"wayfinder/internal/shared/events"
)

// Clock abstracts time.Now so tests can pin RecordedAt.
type Clock func() time.Time

// UsageEventHandler subscribes to ai.tokens_used and records cost via the
// Tracker port. Grounded directly in the original AIUsageHandler, which left
// this unimplemented because its AITokensUsed event carried no session_id;
// llmdomain.TokensUsed now does, so recording no longer needs to be skipped.
// UserID remains absent — llmdomain.TokensUsed carries no user identity —
// so every Record's UserID is empty.
type UsageEventHandler struct {
	Tracker ports.Tracker
	Clock   Clock
}

func (h UsageEventHandler) Name() string { return "usagetracker.usage_handler" }

func (h UsageEventHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

func (h UsageEventHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if envelope.EventType != events.TypeAITokensUsed {
		return nil
	}

	var payload llmdomain.TokensUsed
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return fmt.Errorf("usagetracker: decode ai.tokens_used payload: %w", err)
	}

	record := domain.Record{
		SessionID:        payload.SessionID,
		Provider:         payload.Provider,
		Model:            payload.Model,
		PromptTokens:     payload.PromptTokens,
		CompletionTokens: payload.CompletionTokens,
		CostCents:        payload.CostCents,
		RecordedAt:       h.now(),
	}

	if err := h.Tracker.RecordUsage(ctx, record); err != nil {
		return fmt.Errorf("usagetracker: record usage: %w", err)
	}
	return nil
}
