package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	llmdomain "wayfinder/internal/core/llm/domain"
	"wayfinder/internal/core/llm/ports"
	"wayfinder/internal/shared/events"
)

// OutboxWriter is the narrow slice of the outbox the failover wrapper
// depends on — defined locally so this package never imports
// internal/core/outbox, the same pattern outbox itself uses for its
// EventPublisher dependency on eventbus.
type OutboxWriter interface {
	Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error)
}

// Clock abstracts time.Now so tests can pin occurred_at.
type Clock func() time.Time

// FailoverProvider wraps a primary AIProvider and an optional fallback.
// Both ai.tokens_used and ai.provider_fallback observations are modeled as
// domain events and written to the outbox rather than published directly,
// so they get the same durability and at-least-once delivery as every
// other event in this system.
type FailoverProvider struct {
	Primary  ports.AIProvider
	Fallback ports.AIProvider
	Outbox   OutboxWriter
	Clock    Clock
	Logger   *slog.Logger
}

func (f FailoverProvider) now() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Now().UTC()
}

func (f FailoverProvider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	requestID := uuid.NewString()

	resp, err := f.Primary.Complete(ctx, req)
	if err == nil {
		f.emitTokensUsed(ctx, requestID, req.SessionID, f.Primary.ProviderInfo(), resp)
		return resp, nil
	}

	if !f.shouldFailover(err) {
		return ports.CompletionResponse{}, err
	}

	f.emitFallback(ctx, requestID, f.Primary.ProviderInfo(), f.Fallback.ProviderInfo(), err)
	resp, err = f.Fallback.Complete(ctx, req)
	if err != nil {
		return ports.CompletionResponse{}, err
	}
	f.emitTokensUsed(ctx, requestID, req.SessionID, f.Fallback.ProviderInfo(), resp)
	return resp, nil
}

// StreamComplete applies the same routing as Complete but never buffers the
// stream: chunks are forwarded to the caller's channel as they arrive, and
// only the terminal chunk triggers the ai.tokens_used observation (usage
// only arrives at end-of-stream).
func (f FailoverProvider) StreamComplete(ctx context.Context, req ports.CompletionRequest) (<-chan ports.StreamChunk, error) {
	requestID := uuid.NewString()

	primaryStream, err := f.Primary.StreamComplete(ctx, req)
	if err != nil {
		if !f.shouldFailover(err) {
			return nil, err
		}
		f.emitFallback(ctx, requestID, f.Primary.ProviderInfo(), f.Fallback.ProviderInfo(), err)
		return f.forwardStream(ctx, requestID, f.Fallback, req)
	}
	return f.forwardFromChannel(ctx, requestID, req.SessionID, f.Primary.ProviderInfo(), primaryStream), nil
}

func (f FailoverProvider) forwardStream(ctx context.Context, requestID string, provider ports.AIProvider, req ports.CompletionRequest) (<-chan ports.StreamChunk, error) {
	stream, err := provider.StreamComplete(ctx, req)
	if err != nil {
		return nil, err
	}
	return f.forwardFromChannel(ctx, requestID, req.SessionID, provider.ProviderInfo(), stream), nil
}

func (f FailoverProvider) forwardFromChannel(ctx context.Context, requestID, sessionID string, info ports.ProviderInfo, in <-chan ports.StreamChunk) <-chan ports.StreamChunk {
	out := make(chan ports.StreamChunk)
	go func() {
		defer close(out)
		for chunk := range in {
			out <- chunk
			if chunk.Kind == ports.StreamChunkFinal && chunk.Err == nil {
				f.emitTokensUsed(ctx, requestID, sessionID, info, ports.CompletionResponse{
					Usage:     chunk.Usage,
					CostCents: chunk.CostCents,
				})
			}
		}
	}()
	return out
}

func (f FailoverProvider) EstimateTokens(text string) int { return f.Primary.EstimateTokens(text) }

func (f FailoverProvider) ProviderInfo() ports.ProviderInfo { return f.Primary.ProviderInfo() }

func (f FailoverProvider) shouldFailover(err error) bool {
	if f.Fallback == nil {
		return false
	}
	var failure *llmdomain.Failure
	return errors.As(err, &failure) && failure.Retryable()
}

func (f FailoverProvider) emitTokensUsed(ctx context.Context, requestID, sessionID string, info ports.ProviderInfo, resp ports.CompletionResponse) {
	if f.Outbox == nil {
		return
	}
	event := llmdomain.TokensUsed{
		RequestID:        requestID,
		SessionID:        sessionID,
		Provider:         info.Provider,
		Model:            info.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		CostCents:        resp.CostCents,
	}
	f.writeEvent(ctx, event, requestID)
}

func (f FailoverProvider) emitFallback(ctx context.Context, requestID string, primary, fallback ports.ProviderInfo, cause error) {
	if f.Outbox == nil {
		return
	}
	event := llmdomain.ProviderFallback{
		RequestID:        requestID,
		PrimaryProvider:  primary.Provider,
		FallbackProvider: fallback.Provider,
		Reason:           cause.Error(),
	}
	f.writeEvent(ctx, event, requestID)
}

func (f FailoverProvider) writeEvent(ctx context.Context, event events.DomainEvent, partitionKey string) {
	envelope, err := events.ToEnvelope(event, f.now)
	if err != nil {
		resolveLogger(f.Logger).Warn("llm observation event build failed",
			"event", "llm_observation_build_failed",
			"module", "core/llm",
			"error", err.Error(),
		)
		return
	}
	if _, err := f.Outbox.Write(ctx, envelope, partitionKey); err != nil {
		resolveLogger(f.Logger).Warn("llm observation event write failed",
			"event", "llm_observation_write_failed",
			"module", "core/llm",
			"event_type", string(envelope.EventType),
			"error", err.Error(),
		)
	}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
