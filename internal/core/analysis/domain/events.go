package domain

import "wayfinder/internal/shared/events"

// PughScoresComputed carries a Consequences component's computed Pugh
// analysis. Published with the triggering component.completed event_id as
// causation_id.
type PughScoresComputed struct {
	CycleID               string         `json:"cycle_id"`
	SessionID             string         `json:"session_id"`
	Scores                map[string]int `json:"scores"`
	BestAlternativeID     string         `json:"best_alternative_id"`
	DominatedAlternatives []string       `json:"dominated_alternatives"`
	IrrelevantObjectives  []string       `json:"irrelevant_objectives"`
}

func (PughScoresComputed) EventType() events.Type { return events.TypeAnalysisPughScores }
func (p PughScoresComputed) AggregateID() string  { return p.CycleID }
func (PughScoresComputed) AggregateType() string  { return "cycle" }

// DQScoresComputed carries a Decision Quality component's computed
// weakest-link analysis.
type DQScoresComputed struct {
	CycleID                string   `json:"cycle_id"`
	SessionID              string   `json:"session_id"`
	OverallScore           int      `json:"overall_score"`
	WeakestElement         string   `json:"weakest_element"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

func (DQScoresComputed) EventType() events.Type { return events.TypeAnalysisDQScores }
func (d DQScoresComputed) AggregateID() string  { return d.CycleID }
func (DQScoresComputed) AggregateType() string  { return "cycle" }

// TradeoffsAnalyzed carries a Tradeoffs component's computed gain/loss
// summaries for each non-dominated alternative.
type TradeoffsAnalyzed struct {
	CycleID   string            `json:"cycle_id"`
	SessionID string            `json:"session_id"`
	Summaries []TradeoffSummary `json:"summaries"`
}

func (TradeoffsAnalyzed) EventType() events.Type { return events.TypeAnalysisTradeoffs }
func (t TradeoffsAnalyzed) AggregateID() string  { return t.CycleID }
func (TradeoffsAnalyzed) AggregateType() string  { return "cycle" }
