package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	analysisdomain "wayfinder/internal/core/analysis/domain"
	"wayfinder/internal/shared/events"
)

type fakeCycleReader struct {
	sessionID string
	err       error
}

func (f fakeCycleReader) GetSessionID(ctx context.Context, cycleID string) (string, error) {
	return f.sessionID, f.err
}

type fakeOutputReader struct {
	raw json.RawMessage
	err error
}

func (f fakeOutputReader) GetComponentOutput(ctx context.Context, cycleID, component string) (json.RawMessage, error) {
	return f.raw, f.err
}

type fakeAnalysisOutbox struct {
	written []events.Envelope
	err     error
}

func (f *fakeAnalysisOutbox) Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, envelope)
	return envelope.EventID, nil
}

func fixedAnalysisClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func componentCompletedEnvelope(t *testing.T, cycleID, sessionID, component string) events.Envelope {
	t.Helper()
	payload, err := json.Marshal(analysisdomain.ComponentCompletedPayload{
		CycleID:   cycleID,
		SessionID: sessionID,
		Component: component,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return events.Envelope{
		EventID:       "trigger-event-1",
		EventType:     events.TypeComponentCompleted,
		AggregateID:   cycleID,
		AggregateType: "cycle",
		OccurredAt:    time.Unix(0, 0).UTC(),
		CorrelationID: "corr-1",
		Payload:       payload,
	}
}

func TestHandleIgnoresNonComponentCompletedEvents(t *testing.T) {
	outbox := &fakeAnalysisOutbox{}
	h := TriggerHandler{Outbox: outbox, Clock: fixedAnalysisClock(time.Unix(100, 0).UTC())}

	envelope := componentCompletedEnvelope(t, "cycle-1", "session-1", "consequences")
	envelope.EventType = events.TypeAITokensUsed

	if err := h.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(outbox.written) != 0 {
		t.Fatalf("expected no events written, got %d", len(outbox.written))
	}
}

func TestHandleIgnoresIrrelevantComponents(t *testing.T) {
	outbox := &fakeAnalysisOutbox{}
	h := TriggerHandler{Outbox: outbox, Clock: fixedAnalysisClock(time.Unix(100, 0).UTC())}

	envelope := componentCompletedEnvelope(t, "cycle-1", "session-1", "objectives")

	if err := h.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(outbox.written) != 0 {
		t.Fatalf("expected no events written for irrelevant component, got %d", len(outbox.written))
	}
}

func TestHandleConsequencesComputesAndPublishesPughScores(t *testing.T) {
	tableJSON, err := json.Marshal(analysisdomain.ConsequencesTable{
		Alternatives: []string{"A", "B"},
		Objectives:   []string{"cost", "speed"},
		Ratings: map[string]map[string]int{
			"A": {"cost": 2, "speed": 1},
			"B": {"cost": -1, "speed": -1},
		},
	})
	if err != nil {
		t.Fatalf("marshal table: %v", err)
	}

	outbox := &fakeAnalysisOutbox{}
	h := TriggerHandler{
		Cycles:  fakeCycleReader{sessionID: "session-fallback"},
		Outputs: fakeOutputReader{raw: tableJSON},
		Outbox:  outbox,
		Clock:   fixedAnalysisClock(time.Unix(100, 0).UTC()),
	}

	envelope := componentCompletedEnvelope(t, "cycle-1", "session-1", "consequences")

	if err := h.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(outbox.written) != 1 {
		t.Fatalf("expected 1 event written, got %d", len(outbox.written))
	}

	result := outbox.written[0]
	if result.EventType != events.TypeAnalysisPughScores {
		t.Fatalf("event type = %q, want %q", result.EventType, events.TypeAnalysisPughScores)
	}
	if result.CausationID != "trigger-event-1" {
		t.Fatalf("causation_id = %q, want trigger-event-1", result.CausationID)
	}
	if result.CorrelationID != "corr-1" {
		t.Fatalf("correlation_id = %q, want corr-1", result.CorrelationID)
	}

	var decoded analysisdomain.PughScoresComputed
	if err := json.Unmarshal(result.Payload, &decoded); err != nil {
		t.Fatalf("unmarshal result payload: %v", err)
	}
	if decoded.SessionID != "session-1" {
		t.Fatalf("session_id = %q, want session-1 (from payload, not fallback)", decoded.SessionID)
	}
	if decoded.Scores["A"] != 3 {
		t.Fatalf("A score = %d, want 3", decoded.Scores["A"])
	}
}

func TestHandleConsequencesFallsBackToCycleReaderForSessionID(t *testing.T) {
	tableJSON, err := json.Marshal(analysisdomain.ConsequencesTable{
		Alternatives: []string{"A"},
		Objectives:   []string{"cost"},
		Ratings:      map[string]map[string]int{"A": {"cost": 1}},
	})
	if err != nil {
		t.Fatalf("marshal table: %v", err)
	}

	outbox := &fakeAnalysisOutbox{}
	h := TriggerHandler{
		Cycles:  fakeCycleReader{sessionID: "session-fallback"},
		Outputs: fakeOutputReader{raw: tableJSON},
		Outbox:  outbox,
		Clock:   fixedAnalysisClock(time.Unix(100, 0).UTC()),
	}

	envelope := componentCompletedEnvelope(t, "cycle-1", "", "consequences")

	if err := h.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	var decoded analysisdomain.PughScoresComputed
	if err := json.Unmarshal(outbox.written[0].Payload, &decoded); err != nil {
		t.Fatalf("unmarshal result payload: %v", err)
	}
	if decoded.SessionID != "session-fallback" {
		t.Fatalf("session_id = %q, want session-fallback", decoded.SessionID)
	}
}

func TestHandleDecisionQualityComputesWeakestLink(t *testing.T) {
	outputJSON, err := json.Marshal(analysisdomain.DecisionQualityOutput{
		Elements: []analysisdomain.QualityElement{
			{Name: "Information", ScorePercent: 90},
			{Name: "Alternatives", ScorePercent: 50},
		},
	})
	if err != nil {
		t.Fatalf("marshal output: %v", err)
	}

	outbox := &fakeAnalysisOutbox{}
	h := TriggerHandler{
		Outputs: fakeOutputReader{raw: outputJSON},
		Outbox:  outbox,
		Clock:   fixedAnalysisClock(time.Unix(100, 0).UTC()),
	}

	envelope := componentCompletedEnvelope(t, "cycle-1", "session-1", "decision_quality")

	if err := h.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	var decoded analysisdomain.DQScoresComputed
	if err := json.Unmarshal(outbox.written[0].Payload, &decoded); err != nil {
		t.Fatalf("unmarshal result payload: %v", err)
	}
	if decoded.OverallScore != 50 {
		t.Fatalf("overall score = %d, want 50", decoded.OverallScore)
	}
	if decoded.WeakestElement != "Alternatives" {
		t.Fatalf("weakest element = %q, want Alternatives", decoded.WeakestElement)
	}
}

func TestHandleTradeoffsComputesSummaries(t *testing.T) {
	outputJSON, err := json.Marshal(analysisdomain.TradeoffsOutput{
		ConsequencesTable: analysisdomain.ConsequencesTable{
			Alternatives: []string{"A", "B"},
			Objectives:   []string{"cost", "speed"},
			Ratings: map[string]map[string]int{
				"A": {"cost": 2, "speed": -1},
				"B": {"cost": -1, "speed": 2},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal output: %v", err)
	}

	outbox := &fakeAnalysisOutbox{}
	h := TriggerHandler{
		Outputs: fakeOutputReader{raw: outputJSON},
		Outbox:  outbox,
		Clock:   fixedAnalysisClock(time.Unix(100, 0).UTC()),
	}

	envelope := componentCompletedEnvelope(t, "cycle-1", "session-1", "tradeoffs")

	if err := h.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	var decoded analysisdomain.TradeoffsAnalyzed
	if err := json.Unmarshal(outbox.written[0].Payload, &decoded); err != nil {
		t.Fatalf("unmarshal result payload: %v", err)
	}
	if len(decoded.Summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(decoded.Summaries))
	}
}

func TestHandlePropagatesOutputReaderError(t *testing.T) {
	outbox := &fakeAnalysisOutbox{}
	wantErr := context.DeadlineExceeded
	h := TriggerHandler{
		Outputs: fakeOutputReader{err: wantErr},
		Outbox:  outbox,
		Clock:   fixedAnalysisClock(time.Unix(100, 0).UTC()),
	}

	envelope := componentCompletedEnvelope(t, "cycle-1", "session-1", "consequences")

	if err := h.Handle(context.Background(), envelope); err == nil {
		t.Fatalf("expected error propagated from output reader")
	}
	if len(outbox.written) != 0 {
		t.Fatalf("expected no event written on failure, got %d", len(outbox.written))
	}
}
