// Package ports declares the provider-agnostic capability set the LLM
// client is polymorphic over: {complete, stream_complete,
// estimate_tokens, provider_info}.
package ports

import "context"

// Role is the provider-neutral message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// FinishReason is the provider-neutral projection of why a completion ended.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength         FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
)

// Usage is token accounting for one request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionRequest is a provider-agnostic completion request.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	SessionID    string
}

// CompletionResponse is a provider-agnostic completion response. CostCents
// is computed by the provider adapter from the pricing table using integer
// math: (tokens * price_per_million) / 1_000_000.
type CompletionResponse struct {
	Content      string
	FinishReason FinishReason
	Usage        Usage
	CostCents    int64
}

// StreamChunkKind distinguishes an incremental content delta from the
// terminal chunk of a stream.
type StreamChunkKind string

const (
	StreamChunkDelta StreamChunkKind = "delta"
	StreamChunkFinal StreamChunkKind = "final"
)

// StreamChunk is one item of a stream_complete sequence. A Delta chunk only
// carries Delta; a Final chunk carries FinishReason, Usage, and CostCents
// and is always the last item the channel emits. A provider- or
// transport-level error mid-stream is surfaced as Err on the last chunk the
// channel ever emits — the channel is then closed; partial output already
// delivered through prior Delta chunks is never retried or discarded by the
// client itself.
type StreamChunk struct {
	Kind         StreamChunkKind
	Delta        string
	FinishReason FinishReason
	Usage        Usage
	CostCents    int64
	Err          error
}

// ProviderInfo identifies which concrete provider and model answered (or
// would answer) a request.
type ProviderInfo struct {
	Provider string
	Model    string
}

// AIProvider is the capability set every provider adapter and the failover
// wrapper implement.
type AIProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
	EstimateTokens(text string) int
	ProviderInfo() ProviderInfo
}
