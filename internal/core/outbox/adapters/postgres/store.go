// Package postgres is the gorm-backed ports.Repository for the outbox.
// GetPending claims rows with SELECT ... FOR UPDATE
// SKIP LOCKED inside a short transaction so that concurrent publisher
// instances never hand the same entry to two callers; WithTx lets the
// caller compose Write into the same transaction as its aggregate write.
package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "wayfinder/internal/core/outbox/domain/errors"
	"wayfinder/internal/core/outbox/ports"
	"wayfinder/internal/shared/events"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// WithTx returns a Repository bound to tx, so Write can be composed inside
// the same transaction as the aggregate row it accompanies.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, logger: r.logger}
}

func (r *Repository) Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error) {
	row, err := outboxModelFromEnvelope(envelope, partitionKey)
	if err != nil {
		return "", err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.EntryID, nil
}

func (r *Repository) WriteBatch(ctx context.Context, envelopes []events.Envelope, partitionKey string) ([]string, error) {
	rows := make([]outboxModel, 0, len(envelopes))
	ids := make([]string, 0, len(envelopes))
	for _, e := range envelopes {
		row, err := outboxModelFromEnvelope(e, partitionKey)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		ids = append(ids, row.EntryID)
	}
	if len(rows) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GetPending claims up to limit Pending rows in ascending created_at order.
// The claim happens by locking the candidate rows FOR UPDATE SKIP LOCKED
// and flipping them to an in-flight marker (claimed_at) within the same
// transaction, which is committed before returning — the transaction is
// intentionally short-lived; publishing happens outside of it.
func (r *Repository) GetPending(ctx context.Context, limit int) ([]ports.Entry, error) {
	if limit <= 0 {
		return []ports.Entry{}, nil
	}

	var entries []ports.Entry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []outboxModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND claimed_at IS NULL", string(ports.StatusPending)).
			Order("created_at ASC").
			Limit(limit).
			Find(&rows).
			Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.EntryID)
		}
		now := time.Now().UTC()
		if err := tx.Model(&outboxModel{}).
			Where("entry_id IN ?", ids).
			Update("claimed_at", now).
			Error; err != nil {
			return err
		}

		entries = make([]ports.Entry, 0, len(rows))
		for _, row := range rows {
			entry, err := row.toEntry()
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ports.Entry{}
	}
	return entries, nil
}

func (r *Repository) MarkPublished(ctx context.Context, entryID string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Updates(map[string]any{
			"status":       string(ports.StatusPublished),
			"processed_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEntryNotFound
	}
	return nil
}

// MarkFailed is a terminal state update: the entry moves to Failed, clearing
// claimed_at since nothing will reclaim it.
func (r *Repository) MarkFailed(ctx context.Context, entryID string, cause error) error {
	causeText := ""
	if cause != nil {
		causeText = cause.Error()
	}
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Updates(map[string]any{
			"status":     string(ports.StatusFailed),
			"claimed_at": nil,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": causeText,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrEntryNotFound
	}
	return nil
}

func (r *Repository) CleanupOld(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", string(ports.StatusPublished), cutoff).
		Delete(&outboxModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

type outboxModel struct {
	EntryID       string     `gorm:"column:entry_id;primaryKey"`
	EventID       string     `gorm:"column:event_id"`
	EventType     string     `gorm:"column:event_type"`
	AggregateID   string     `gorm:"column:aggregate_id"`
	AggregateType string     `gorm:"column:aggregate_type"`
	CorrelationID string     `gorm:"column:correlation_id"`
	CausationID   string     `gorm:"column:causation_id"`
	UserID        string     `gorm:"column:user_id"`
	PartitionKey  string     `gorm:"column:partition_key"`
	Payload       []byte     `gorm:"column:payload"`
	Status        string     `gorm:"column:status"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	ClaimedAt     *time.Time `gorm:"column:claimed_at"`
	ProcessedAt   *time.Time `gorm:"column:processed_at"`
	Attempts      uint32     `gorm:"column:attempts"`
	LastError     string     `gorm:"column:last_error"`
}

func (outboxModel) TableName() string {
	return "outbox_entries"
}

func outboxModelFromEnvelope(e events.Envelope, partitionKey string) (outboxModel, error) {
	if strings.TrimSpace(e.EventID) == "" || e.EventType == "" {
		return outboxModel{}, domainerrors.ErrInvalidEnvelope
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return outboxModel{}, err
	}
	occurredAt := e.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return outboxModel{
		EntryID:       uuid.NewString(),
		EventID:       e.EventID,
		EventType:     string(e.EventType),
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		CorrelationID: e.CorrelationID,
		CausationID:   e.CausationID,
		UserID:        e.UserID,
		PartitionKey:  strings.TrimSpace(partitionKey),
		Payload:       payload,
		Status:        string(ports.StatusPending),
		CreatedAt:     occurredAt,
	}, nil
}

func (m outboxModel) toEntry() (ports.Entry, error) {
	var envelope events.Envelope
	if err := json.Unmarshal(m.Payload, &envelope); err != nil {
		return ports.Entry{}, err
	}
	return ports.Entry{
		EntryID:      m.EntryID,
		Envelope:     envelope,
		PartitionKey: m.PartitionKey,
		Status:       ports.Status(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		ProcessedAt:  m.ProcessedAt,
		Attempts:     m.Attempts,
		LastError:    m.LastError,
	}, nil
}
