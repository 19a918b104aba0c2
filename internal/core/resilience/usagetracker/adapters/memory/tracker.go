// Package memory is an in-process ports.Tracker used for tests.
package memory

import (
	"context"
	"sync"
	"time"

	"wayfinder/internal/core/resilience/usagetracker/domain"
)

type Tracker struct {
	mu      sync.Mutex
	records []domain.Record
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) RecordUsage(ctx context.Context, record domain.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, record)
	return nil
}

func (t *Tracker) GetDailyCost(ctx context.Context, userID string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var total int64
	for _, r := range t.records {
		if r.UserID == userID && !r.RecordedAt.Before(dayStart) {
			total += r.CostCents
		}
	}
	return total, nil
}

func (t *Tracker) GetSessionCost(ctx context.Context, sessionID string) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, r := range t.records {
		if r.SessionID == sessionID {
			total += r.CostCents
		}
	}
	return total, nil
}

func (t *Tracker) GetUsageSummary(ctx context.Context, userID string, from, to time.Time) (domain.Summary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byProvider := make(map[string]*domain.ProviderUsage)
	var summary domain.Summary
	for _, r := range t.records {
		if r.UserID != userID || r.RecordedAt.Before(from) || r.RecordedAt.After(to) {
			continue
		}
		summary.TotalCostCents += r.CostCents
		summary.TotalTokens += r.TotalTokens()
		summary.RequestCount++

		entry, ok := byProvider[r.Provider]
		if !ok {
			entry = &domain.ProviderUsage{Provider: r.Provider}
			byProvider[r.Provider] = entry
		}
		entry.CostCents += r.CostCents
		entry.Tokens += r.TotalTokens()
		entry.Requests++
	}
	for _, entry := range byProvider {
		summary.ByProvider = append(summary.ByProvider, *entry)
	}
	return summary, nil
}

func (t *Tracker) CheckDailyLimit(ctx context.Context, userID string, limitCents int64) (domain.LimitStatus, error) {
	current, err := t.GetDailyCost(ctx, userID)
	if err != nil {
		return 0, err
	}
	return domain.ClassifyLimit(current, limitCents), nil
}

func (t *Tracker) CheckSessionLimit(ctx context.Context, sessionID string, limitCents int64) (domain.LimitStatus, error) {
	current, err := t.GetSessionCost(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return domain.ClassifyLimit(current, limitCents), nil
}
