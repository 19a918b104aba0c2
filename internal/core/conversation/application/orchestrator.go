package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wayfinder/internal/core/conversation/domain"
	domainerrors "wayfinder/internal/core/conversation/domain/errors"
	"wayfinder/internal/core/conversation/ports"
)

// Intent is the caller's routing decision for route_intent.
type Intent struct {
	Kind   IntentKind
	Target domain.Component // only meaningful when Kind == IntentNavigate
}

type IntentKind string

const (
	IntentContinue IntentKind = "continue"
	IntentNavigate IntentKind = "navigate"
	IntentComplete IntentKind = "complete"
)

// Clock abstracts time.Now so tests can pin timestamps.
type Clock func() time.Time

// Orchestrator composes the step state machine with the LLM client.
type Orchestrator struct {
	Storage  ports.StateStorage
	Specs    ports.AgentSpecRegistry
	AI       ports.AIClient
	Eligible domain.EligibilityPolicy
	Clock    Clock
	Logger   *slog.Logger
}

func (o Orchestrator) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}

// Start creates fresh ConversationState if absent; fails with
// ErrCycleAlreadyStarted if one already exists.
func (o Orchestrator) Start(ctx context.Context, cycleID, sessionID string, initialComponent domain.Component) (domain.State, error) {
	exists, err := o.Storage.Exists(ctx, cycleID)
	if err != nil {
		return domain.State{}, err
	}
	if exists {
		return domain.State{}, domainerrors.ErrCycleAlreadyStarted
	}

	state := domain.NewState(cycleID, sessionID, initialComponent, o.now())
	if err := o.Storage.Save(ctx, state); err != nil {
		return domain.State{}, err
	}
	resolveLogger(o.Logger).Info("conversation started",
		"event", "conversation_started",
		"module", "core/conversation",
		"layer", "application",
		"cycle_id", cycleID,
		"session_id", sessionID,
		"initial_component", string(initialComponent),
	)
	return state, nil
}

// Send loads state, appends the user message, drives the LLM client with a
// system prompt derived from current_step's agent spec and the full
// message_history, and — only on a successful completion — appends the
// assistant message and persists both atomically. If the LLM call fails,
// state is left exactly as loaded: the user's message is never persisted
// without its paired assistant response.
func (o Orchestrator) Send(ctx context.Context, cycleID, userMessage string) (string, error) {
	state, err := o.Storage.Load(ctx, cycleID)
	if err != nil {
		return "", err
	}

	spec, err := o.Specs.Get(state.CurrentStep)
	if err != nil {
		return "", err
	}

	pendingHistory := append(append([]domain.Message(nil), state.MessageHistory...), domain.Message{
		Role:      domain.RoleUser,
		Content:   userMessage,
		CreatedAt: o.now(),
	})

	req := ports.CompletionRequest{
		SystemPrompt: buildSystemPrompt(spec),
		Messages:     toProviderMessages(pendingHistory),
		SessionID:    state.SessionID,
	}

	resp, err := o.AI.Complete(ctx, req)
	if err != nil {
		resolveLogger(o.Logger).Warn("conversation send failed before completion",
			"event", "conversation_send_failed",
			"module", "core/conversation",
			"layer", "application",
			"cycle_id", cycleID,
			"error", err.Error(),
		)
		return "", err
	}

	now := o.now()
	state = state.AppendMessage(domain.Message{Role: domain.RoleUser, Content: userMessage, CreatedAt: now})
	state = state.AppendMessage(domain.Message{Role: domain.RoleAssistant, Content: resp.Content, CreatedAt: now})
	state.UpdatedAt = now

	if err := o.Storage.Save(ctx, state); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// RouteIntent applies the step state machine for one intent and returns the
// resulting current_step.
func (o Orchestrator) RouteIntent(ctx context.Context, cycleID string, intent Intent) (domain.Component, error) {
	state, err := o.Storage.Load(ctx, cycleID)
	if err != nil {
		return "", err
	}

	now := o.now()
	switch intent.Kind {
	case IntentContinue:
		state = state.ApplyContinue(now)
	case IntentComplete:
		state, err = state.ApplyComplete(o.Eligible, now)
		if err != nil {
			return "", err
		}
	case IntentNavigate:
		state, err = state.ApplyNavigate(intent.Target, now)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("conversation: unknown intent kind %q", intent.Kind)
	}

	if err := o.Storage.Save(ctx, state); err != nil {
		return "", err
	}
	return state.CurrentStep, nil
}

// Get returns the cycle's conversation state.
func (o Orchestrator) Get(ctx context.Context, cycleID string) (domain.State, error) {
	return o.Storage.Load(ctx, cycleID)
}

// End deletes the cycle's conversation state. Idempotent: ending an already-
// ended (or never-started) cycle is not an error.
func (o Orchestrator) End(ctx context.Context, cycleID string) error {
	exists, err := o.Storage.Exists(ctx, cycleID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return o.Storage.Delete(ctx, cycleID)
}

func buildSystemPrompt(spec ports.AgentSpec) string {
	prompt := spec.RoleText
	if len(spec.Objectives) > 0 {
		prompt += "\n\nObjectives:"
		for _, o := range spec.Objectives {
			prompt += "\n- " + o
		}
	}
	if len(spec.Techniques) > 0 {
		prompt += "\n\nTechniques:"
		for _, t := range spec.Techniques {
			prompt += "\n- " + t
		}
	}
	return prompt
}

func toProviderMessages(history []domain.Message) []ports.ProviderMessage {
	out := make([]ports.ProviderMessage, 0, len(history))
	for _, m := range history {
		out = append(out, ports.ProviderMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// EstimateTokens applies the declared cheap heuristic: ≈4 characters per
// token.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
