// Package postgres is the gorm-backed ports.Store for webhook idempotency.
// Save relies on a database-level unique constraint on
// event_id via clause.OnConflict{DoNothing: true}: the first concurrent
// insert wins (RowsAffected > 0, Inserted); every other racing insert sees
// RowsAffected == 0 and reports AlreadyExists without erroring.
package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wayfinder/internal/core/resilience/webhookidempotency/domain"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: resolveLogger(logger)}
}

func (s *Store) FindByEventID(ctx context.Context, eventID string) (domain.Record, bool, error) {
	var row webhookRecordModel
	err := s.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Record{}, false, nil
		}
		return domain.Record{}, false, err
	}
	return row.toRecord(), true, nil
}

func (s *Store) Save(ctx context.Context, record domain.Record) (domain.SaveOutcome, error) {
	row := webhookRecordModelFromRecord(record)
	create := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return 0, create.Error
	}
	if create.RowsAffected > 0 {
		return domain.Inserted, nil
	}
	return domain.AlreadyExists, nil
}

func (s *Store) DeleteBefore(ctx context.Context, ts time.Time) (int, error) {
	result := s.db.WithContext(ctx).
		Where("processed_at < ?", ts.UTC()).
		Delete(&webhookRecordModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

type webhookRecordModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	Source      string    `gorm:"column:source"`
	Result      string    `gorm:"column:result"`
	Payload     []byte    `gorm:"column:payload"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (webhookRecordModel) TableName() string { return "webhook_idempotency_records" }

func webhookRecordModelFromRecord(r domain.Record) webhookRecordModel {
	return webhookRecordModel{
		EventID:     strings.TrimSpace(r.EventID),
		Source:      r.Source,
		Result:      r.Result,
		Payload:     r.Payload,
		ProcessedAt: r.ProcessedAt.UTC(),
	}
}

func (m webhookRecordModel) toRecord() domain.Record {
	return domain.Record{
		EventID:     m.EventID,
		Source:      m.Source,
		Result:      m.Result,
		Payload:     m.Payload,
		ProcessedAt: m.ProcessedAt.UTC(),
	}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
