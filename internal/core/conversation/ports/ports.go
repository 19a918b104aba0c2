// Package ports declares the capability sets the conversation orchestrator
// depends on.
package ports

import (
	"context"

	"wayfinder/internal/core/conversation/domain"
)

// StateStorage is per-cycle conversation state persistence. No in-memory
// caching is assumed — the orchestrator loads, mutates locally, and writes
// back in one round-trip per operation.
type StateStorage interface {
	Load(ctx context.Context, cycleID string) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
	Exists(ctx context.Context, cycleID string) (bool, error)
	Delete(ctx context.Context, cycleID string) error
}

// AgentSpec is the declared, versioned prompt contract for one component:
// role text, objectives, and conversational techniques the system prompt is
// built from.
type AgentSpec struct {
	Component  domain.Component
	Version    int
	RoleText   string
	Objectives []string
	Techniques []string
}

// AgentSpecRegistry resolves the current AgentSpec for a component.
type AgentSpecRegistry interface {
	Get(component domain.Component) (AgentSpec, error)
}

// CompletionRequest is the provider-agnostic request the orchestrator issues
// for a send(). SystemPrompt is derived from the current component's
// AgentSpec; Messages is MessageHistory mapped to the provider message
// format, in chronological order.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []ProviderMessage
	MaxTokens    int
	SessionID    string
}

// ProviderMessage is the provider-format projection of a domain.Message.
type ProviderMessage struct {
	Role    domain.Role
	Content string
}

// CompletionResponse is the provider-agnostic response to a CompletionRequest.
type CompletionResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// AIClient is the narrow slice of the LLM failover wrapper the orchestrator
// drives — defined locally, satisfied structurally by
// llm/application.ConversationClient (which wraps llm.FailoverProvider),
// so this package never imports llm.
type AIClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// TokenEstimator estimates token counts cheaply (≈4 chars/token) for
// pre-call budget checks.
type TokenEstimator interface {
	EstimateTokens(text string) int
}
