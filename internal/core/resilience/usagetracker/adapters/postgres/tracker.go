// Package postgres is the gorm-backed ports.Tracker for usage accounting.
package postgres

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"wayfinder/internal/core/resilience/usagetracker/domain"
)

type Tracker struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTracker(db *gorm.DB, logger *slog.Logger) *Tracker {
	return &Tracker{db: db, logger: resolveLogger(logger)}
}

func (t *Tracker) RecordUsage(ctx context.Context, record domain.Record) error {
	row := usageRecordModel{
		UserID:           strings.TrimSpace(record.UserID),
		SessionID:        strings.TrimSpace(record.SessionID),
		Provider:         record.Provider,
		Model:            record.Model,
		PromptTokens:     record.PromptTokens,
		CompletionTokens: record.CompletionTokens,
		CostCents:        record.CostCents,
		RecordedAt:       record.RecordedAt.UTC(),
	}
	return t.db.WithContext(ctx).Create(&row).Error
}

func (t *Tracker) GetDailyCost(ctx context.Context, userID string) (int64, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.sumCost(ctx, "user_id = ? AND recorded_at >= ?", userID, dayStart)
}

func (t *Tracker) GetSessionCost(ctx context.Context, sessionID string) (int64, error) {
	return t.sumCost(ctx, "session_id = ?", sessionID)
}

func (t *Tracker) sumCost(ctx context.Context, where string, args ...any) (int64, error) {
	var total int64
	err := t.db.WithContext(ctx).
		Model(&usageRecordModel{}).
		Where(where, args...).
		Select("COALESCE(SUM(cost_cents), 0)").
		Row().
		Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (t *Tracker) GetUsageSummary(ctx context.Context, userID string, from, to time.Time) (domain.Summary, error) {
	var rows []usageRecordModel
	if err := t.db.WithContext(ctx).
		Where("user_id = ? AND recorded_at BETWEEN ? AND ?", strings.TrimSpace(userID), from.UTC(), to.UTC()).
		Find(&rows).Error; err != nil {
		return domain.Summary{}, err
	}

	byProvider := make(map[string]*domain.ProviderUsage)
	var summary domain.Summary
	for _, row := range rows {
		tokens := row.PromptTokens + row.CompletionTokens
		summary.TotalCostCents += row.CostCents
		summary.TotalTokens += tokens
		summary.RequestCount++

		entry, ok := byProvider[row.Provider]
		if !ok {
			entry = &domain.ProviderUsage{Provider: row.Provider}
			byProvider[row.Provider] = entry
		}
		entry.CostCents += row.CostCents
		entry.Tokens += tokens
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

type usageRecordModel struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           string    `gorm:"column:user_id"`
	SessionID        string    `gorm:"column:session_id"`
	Provider         string    `gorm:"column:provider"`
	Model            string    `gorm:"column:model"`
	PromptTokens     int       `gorm:"column:prompt_tokens"`
	CompletionTokens int       `gorm:"column:completion_tokens"`
	CostCents        int64     `gorm:"column:cost_cents"`
	RecordedAt       time.Time `gorm:"column:recorded_at"`
}

func (usageRecordModel) TableName() string { return "usage_records" }

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
