// Package events defines the shared event envelope and the domain event
// trait every aggregate's emitted events must satisfy before they can reach
// the outbox (see internal/core/outbox) and the event bus
// (see internal/core/eventbus).
package events

// Type is the closed, versioned vocabulary of event_type strings the core
// recognizes. New event types are added here, never invented inline at a
// call site, so that subscribers can exhaustively enumerate what they might
// receive.
type Type string

const (
	TypeSessionCreated          Type = "session.created"
	TypeCycleCreated            Type = "cycle.created"
	TypeCycleBranched           Type = "cycle.branched"
	TypeComponentCompleted      Type = "component.completed"
	TypeMembershipCreatedV1     Type = "membership.created.v1"
	TypeMembershipUpdated       Type = "membership.updated"
	TypeAITokensUsed            Type = "ai.tokens_used"
	TypeAIProviderFallback      Type = "ai.provider_fallback"
	TypeAnalysisPughScores      Type = "analysis.pugh_scores_computed"
	TypeAnalysisDQScores        Type = "analysis.dq_scores_computed"
	TypeAnalysisTradeoffs       Type = "analysis.tradeoffs_analyzed"
)

// String implements fmt.Stringer so Type reads naturally in log fields.
func (t Type) String() string { return string(t) }
