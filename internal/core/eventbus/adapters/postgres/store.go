// Package postgres is the gorm-backed ports.ProcessedEventStore.
package postgres

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	HandlerName string    `gorm:"column:handler_name;primaryKey"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (processedEventModel) TableName() string {
	return "eventbus_processed_events"
}

func (s *Store) IsProcessed(ctx context.Context, eventID, handlerName string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&processedEventModel{}).
		Where("event_id = ? AND handler_name = ?", eventID, handlerName).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed is an idempotent insert: a repeat call for the same
// (event_id, handler_name) pair is a silent no-op via ON CONFLICT DO NOTHING.
func (s *Store) MarkProcessed(ctx context.Context, eventID, handlerName string) error {
	row := processedEventModel{
		EventID:     eventID,
		HandlerName: handlerName,
		ProcessedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "handler_name"}},
			DoNothing: true,
		}).
		Create(&row).Error
}
