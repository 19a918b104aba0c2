// Package application implements the analysis trigger handler:
// an eventbus.ports.Handler that reacts to component.completed and computes
// Pugh scores, decision-quality scores, or tradeoff summaries depending on
// which component just finished.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	analysisdomain "wayfinder/internal/core/analysis/domain"
	"wayfinder/internal/core/analysis/ports"
	"wayfinder/internal/shared/events"
)

// The component name strings component.completed payloads carry. These
// mirror conversation/domain.Component's wire values; this package does not
// import conversation to keep the dependency direction one-way, the same
// isolation idiom used throughout this repo's core packages.
const (
	componentConsequences    = "consequences"
	componentDecisionQuality = "decision_quality"
	componentTradeoffs       = "tradeoffs"
)

// OutboxWriter is the narrow outbox slice this handler depends on.
type OutboxWriter interface {
	Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error)
}

// Clock abstracts time.Now so tests can pin occurred_at.
type Clock func() time.Time

// TriggerHandler is the eventbus.ports.Handler subscribed to
// component.completed.
type TriggerHandler struct {
	Cycles  ports.CycleReader
	Outputs ports.ComponentOutputReader
	Outbox  OutboxWriter
	Clock   Clock
	Logger  *slog.Logger
}

func (h TriggerHandler) Name() string { return "analysis.trigger_handler" }

func (h TriggerHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

// Handle ignores every event type and component other than the three this
// handler reacts to.
func (h TriggerHandler) Handle(ctx context.Context, envelope events.Envelope) error {
	if envelope.EventType != events.TypeComponentCompleted {
		return nil
	}

	var payload analysisdomain.ComponentCompletedPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return fmt.Errorf("analysis: decode component.completed payload: %w", err)
	}

	switch payload.Component {
	case componentConsequences:
		return h.handleConsequences(ctx, envelope, payload)
	case componentDecisionQuality:
		return h.handleDecisionQuality(ctx, envelope, payload)
	case componentTradeoffs:
		return h.handleTradeoffs(ctx, envelope, payload)
	default:
		return nil
	}
}

// resolveSessionID trusts the event payload's session_id when present;
// component.completed is expected to always carry it, but the dedicated
// CycleReader read port exists for the rare case an older event predates
// that field, per this "fetch the cycle (for session context)".
func (h TriggerHandler) resolveSessionID(ctx context.Context, payload analysisdomain.ComponentCompletedPayload) (string, error) {
	if payload.SessionID != "" {
		return payload.SessionID, nil
	}
	return h.Cycles.GetSessionID(ctx, payload.CycleID)
}

func (h TriggerHandler) handleConsequences(ctx context.Context, trigger events.Envelope, payload analysisdomain.ComponentCompletedPayload) error {
	sessionID, err := h.resolveSessionID(ctx, payload)
	if err != nil {
		return err
	}
	raw, err := h.Outputs.GetComponentOutput(ctx, payload.CycleID, componentConsequences)
	if err != nil {
		return err
	}
	var table analysisdomain.ConsequencesTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return fmt.Errorf("analysis: decode consequences output: %w", err)
	}

	result := analysisdomain.ComputePugh(table)
	event := analysisdomain.PughScoresComputed{
		CycleID:               payload.CycleID,
		SessionID:             sessionID,
		Scores:                result.Scores,
		BestAlternativeID:     result.BestAlternative,
		DominatedAlternatives: result.DominatedAlternatives,
		IrrelevantObjectives:  result.IrrelevantObjectives,
	}
	return h.publish(ctx, trigger, event)
}

func (h TriggerHandler) handleDecisionQuality(ctx context.Context, trigger events.Envelope, payload analysisdomain.ComponentCompletedPayload) error {
	sessionID, err := h.resolveSessionID(ctx, payload)
	if err != nil {
		return err
	}
	raw, err := h.Outputs.GetComponentOutput(ctx, payload.CycleID, componentDecisionQuality)
	if err != nil {
		return err
	}
	var output analysisdomain.DecisionQualityOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return fmt.Errorf("analysis: decode decision quality output: %w", err)
	}

	result, err := analysisdomain.ComputeDQ(output.Elements)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	event := analysisdomain.DQScoresComputed{
		CycleID:                payload.CycleID,
		SessionID:              sessionID,
		OverallScore:           result.OverallScore,
		WeakestElement:         result.WeakestElement,
		ImprovementSuggestions: result.ImprovementSuggestions,
	}
	return h.publish(ctx, trigger, event)
}

func (h TriggerHandler) handleTradeoffs(ctx context.Context, trigger events.Envelope, payload analysisdomain.ComponentCompletedPayload) error {
	sessionID, err := h.resolveSessionID(ctx, payload)
	if err != nil {
		return err
	}
	raw, err := h.Outputs.GetComponentOutput(ctx, payload.CycleID, componentTradeoffs)
	if err != nil {
		return err
	}
	var output analysisdomain.TradeoffsOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return fmt.Errorf("analysis: decode tradeoffs output: %w", err)
	}

	pugh := analysisdomain.ComputePugh(output.ConsequencesTable)
	dominated := make(map[string]bool, len(pugh.DominatedAlternatives))
	for _, alt := range pugh.DominatedAlternatives {
		dominated[alt] = true
	}

	summaries := analysisdomain.ComputeTradeoffs(output.ConsequencesTable, dominated)
	event := analysisdomain.TradeoffsAnalyzed{
		CycleID:   payload.CycleID,
		SessionID: sessionID,
		Summaries: summaries,
	}
	return h.publish(ctx, trigger, event)
}

func (h TriggerHandler) publish(ctx context.Context, trigger events.Envelope, event events.DomainEvent) error {
	envelope, err := events.ToEnvelope(event, h.now)
	if err != nil {
		return fmt.Errorf("analysis: build result envelope: %w", err)
	}
	envelope = envelope.WithCausationID(trigger.EventID).WithCorrelationID(trigger.CorrelationID)

	if _, err := h.Outbox.Write(ctx, envelope, payloadPartitionKey(event)); err != nil {
		resolveLogger(h.Logger).Warn("analysis result write failed",
			"event", "analysis_result_write_failed",
			"module", "core/analysis",
			"event_type", string(envelope.EventType),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func payloadPartitionKey(event events.DomainEvent) string {
	return event.AggregateID()
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
