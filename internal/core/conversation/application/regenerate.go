package application

import (
	"context"

	"wayfinder/internal/core/conversation/domain"
	domainerrors "wayfinder/internal/core/conversation/domain/errors"
	"wayfinder/internal/core/conversation/ports"
)

// RateLimiter is the narrow slice of the resilience rate limiter this
// package depends on — defined locally (see outbox.ports.EventPublisher for
// the same pattern) so conversation never imports resilience.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string) (bool, error)
}

// Regenerate re-invokes the LLM client for the last user message without
// re-appending it to history (supplements this with the original's
// regenerate_response operation). It is throttled per-session by the
// caller-supplied RateLimiter.
func (o Orchestrator) Regenerate(ctx context.Context, cycleID string, limiter RateLimiter, rateLimitKey string) (string, error) {
	if limiter != nil {
		allowed, err := limiter.CheckRateLimit(ctx, rateLimitKey)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", domainerrors.ErrRateLimited
		}
	}

	state, err := o.Storage.Load(ctx, cycleID)
	if err != nil {
		return "", err
	}
	lastUserIndex := -1
	for i := len(state.MessageHistory) - 1; i >= 0; i-- {
		if state.MessageHistory[i].Role == domain.RoleUser {
			lastUserIndex = i
			break
		}
	}
	if lastUserIndex < 0 {
		return "", domainerrors.ErrNoMessageToRegenerate
	}

	spec, err := o.Specs.Get(state.CurrentStep)
	if err != nil {
		return "", err
	}

	// Regeneration replays history up to and including the last user turn,
	// discarding whatever assistant reply followed it.
	historyUpToUser := state.MessageHistory[:lastUserIndex+1]
	req := ports.CompletionRequest{
		SystemPrompt: buildSystemPrompt(spec),
		Messages:     toProviderMessages(historyUpToUser),
		SessionID:    state.SessionID,
	}

	resp, err := o.AI.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	now := o.now()
	newHistory := append([]domain.Message(nil), historyUpToUser...)
	newHistory = append(newHistory, domain.Message{Role: domain.RoleAssistant, Content: resp.Content, CreatedAt: now})
	state.MessageHistory = newHistory
	state.UpdatedAt = now

	if err := o.Storage.Save(ctx, state); err != nil {
		return "", err
	}
	return resp.Content, nil
}
