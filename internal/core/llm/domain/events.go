package domain

import "wayfinder/internal/shared/events"

// TokensUsed is published by the failover wrapper after any successful
// completion — streaming or not — so usage accounting never touches
// the provider directly.
type TokensUsed struct {
	RequestID        string `json:"request_id"`
	SessionID        string `json:"session_id"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	CostCents        int64  `json:"cost_cents"`
}

func (TokensUsed) EventType() events.Type      { return events.TypeAITokensUsed }
func (t TokensUsed) AggregateID() string       { return t.RequestID }
func (TokensUsed) AggregateType() string       { return "llm_request" }

// ProviderFallback is published when the primary provider fails with a
// retryable failure and the wrapper routes the request to the fallback.
type ProviderFallback struct {
	RequestID        string `json:"request_id"`
	PrimaryProvider  string `json:"primary_provider"`
	FallbackProvider string `json:"fallback_provider"`
	Reason           string `json:"reason"`
}

func (ProviderFallback) EventType() events.Type { return events.TypeAIProviderFallback }
func (p ProviderFallback) AggregateID() string   { return p.RequestID }
func (ProviderFallback) AggregateType() string   { return "llm_request" }
