// Package ports declares the usage tracker's capability set.
package ports

import (
	"context"
	"time"

	"wayfinder/internal/core/resilience/usagetracker/domain"
)

type Tracker interface {
	RecordUsage(ctx context.Context, record domain.Record) error
	GetDailyCost(ctx context.Context, userID string) (int64, error)
	GetSessionCost(ctx context.Context, sessionID string) (int64, error)
	GetUsageSummary(ctx context.Context, userID string, from, to time.Time) (domain.Summary, error)
	CheckDailyLimit(ctx context.Context, userID string, limitCents int64) (domain.LimitStatus, error)
	CheckSessionLimit(ctx context.Context, sessionID string, limitCents int64) (domain.LimitStatus, error)
}
