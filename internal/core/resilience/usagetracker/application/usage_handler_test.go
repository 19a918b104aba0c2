package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	llmdomain "wayfinder/internal/core/llm/domain"
	"wayfinder/internal/core/resilience/usagetracker/domain"
	"wayfinder/internal/shared/events"
)

type fakeTracker struct {
	recorded []domain.Record
	err      error
}

func (f *fakeTracker) RecordUsage(ctx context.Context, record domain.Record) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, record)
	return nil
}

func (f *fakeTracker) GetDailyCost(ctx context.Context, userID string) (int64, error) { return 0, nil }
func (f *fakeTracker) GetSessionCost(ctx context.Context, sessionID string) (int64, error) {
	return 0, nil
}
func (f *fakeTracker) GetUsageSummary(ctx context.Context, userID string, from, to time.Time) (domain.Summary, error) {
	return domain.Summary{}, nil
}
func (f *fakeTracker) CheckDailyLimit(ctx context.Context, userID string, limitCents int64) (domain.LimitStatus, error) {
	return domain.UnderWarning, nil
}
func (f *fakeTracker) CheckSessionLimit(ctx context.Context, sessionID string, limitCents int64) (domain.LimitStatus, error) {
	return domain.UnderWarning, nil
}

func tokensUsedEnvelope(t *testing.T, payload llmdomain.TokensUsed) events.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return events.Envelope{
		EventID:   "evt-1",
		EventType: events.TypeAITokensUsed,
		Payload:   raw,
	}
}

func TestUsageEventHandlerIgnoresOtherEventTypes(t *testing.T) {
	tracker := &fakeTracker{}
	handler := UsageEventHandler{Tracker: tracker}

	envelope := tokensUsedEnvelope(t, llmdomain.TokensUsed{RequestID: "r1"})
	envelope.EventType = events.TypeAIProviderFallback

	if err := handler.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(tracker.recorded) != 0 {
		t.Fatalf("expected no recordings, got %d", len(tracker.recorded))
	}
}

func TestUsageEventHandlerRecordsOnTokensUsed(t *testing.T) {
	tracker := &fakeTracker{}
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	handler := UsageEventHandler{Tracker: tracker, Clock: func() time.Time { return fixed }}

	payload := llmdomain.TokensUsed{
		RequestID:        "r1",
		SessionID:        "s1",
		Provider:         "openai",
		Model:            "gpt-5",
		PromptTokens:     100,
		CompletionTokens: 50,
		CostCents:        12,
	}
	envelope := tokensUsedEnvelope(t, payload)

	if err := handler.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(tracker.recorded) != 1 {
		t.Fatalf("expected 1 recording, got %d", len(tracker.recorded))
	}
	got := tracker.recorded[0]
	if got.SessionID != "s1" || got.Provider != "openai" || got.CostCents != 12 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.RecordedAt.Equal(fixed) {
		t.Fatalf("expected RecordedAt %v, got %v", fixed, got.RecordedAt)
	}
}

func TestUsageEventHandlerPropagatesTrackerError(t *testing.T) {
	boom := errors.New("boom")
	tracker := &fakeTracker{err: boom}
	handler := UsageEventHandler{Tracker: tracker}

	envelope := tokensUsedEnvelope(t, llmdomain.TokensUsed{RequestID: "r1"})
	err := handler.Handle(context.Background(), envelope)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}
}
