package application

import (
	"context"
	"errors"
	"time"

	llmdomain "wayfinder/internal/core/llm/domain"
	"wayfinder/internal/core/llm/ports"
)

// Sleeper abstracts time.Sleep so tests can run backoff without waiting.
type Sleeper func(d time.Duration)

// RetryingProvider wraps an AIProvider and retries non-streaming Complete
// calls up to MaxRetries times on a retryable Failure, with exponential
// backoff starting at 1s (1s, 2s, 4s, …). StreamComplete is never retried —
// this forbids silently discarding and re-issuing partial streamed
// output.
type RetryingProvider struct {
	Inner      ports.AIProvider
	MaxRetries int
	Sleep      Sleeper
}

func (r RetryingProvider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries(); attempt++ {
		resp, err := r.Inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var failure *llmdomain.Failure
		if !errors.As(err, &failure) || !failure.Retryable() || attempt == r.maxRetries() {
			return ports.CompletionResponse{}, err
		}

		r.sleep(backoff)
		backoff *= 2

		if ctx.Err() != nil {
			return ports.CompletionResponse{}, ctx.Err()
		}
	}
	return ports.CompletionResponse{}, lastErr
}

func (r RetryingProvider) StreamComplete(ctx context.Context, req ports.CompletionRequest) (<-chan ports.StreamChunk, error) {
	return r.Inner.StreamComplete(ctx, req)
}

func (r RetryingProvider) EstimateTokens(text string) int { return r.Inner.EstimateTokens(text) }

func (r RetryingProvider) ProviderInfo() ports.ProviderInfo { return r.Inner.ProviderInfo() }

func (r RetryingProvider) maxRetries() int {
	if r.MaxRetries <= 0 {
		return 3
	}
	return r.MaxRetries
}

func (r RetryingProvider) sleep(d time.Duration) {
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}
