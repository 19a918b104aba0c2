package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domainerrors "wayfinder/internal/core/outbox/domain/errors"
	"wayfinder/internal/core/outbox/ports"
	"wayfinder/internal/shared/events"
)

// Writer persists outbox entries. It is a thin, logging wrapper around the
// storage port — the transactional guarantee required by this ("a
// write call MUST be composable within the same transaction boundary as the
// aggregate write") is the responsibility of the concrete ports.Repository
// (see adapters/postgres, whose WithTx binds to the caller's *gorm.DB tx).
type Writer struct {
	Repo   ports.Repository
	Logger *slog.Logger
}

// Write persists a single Pending entry.
func (w Writer) Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error) {
	if strings.TrimSpace(envelope.EventID) == "" || envelope.EventType == "" {
		return "", domainerrors.ErrInvalidEnvelope
	}
	id, err := w.Repo.Write(ctx, envelope, partitionKey)
	if err != nil {
		resolveLogger(w.Logger).Error("outbox write failed",
			"event", "outbox_write_failed",
			"module", "core/outbox",
			"layer", "application",
			"event_type", string(envelope.EventType),
			"error", err.Error(),
		)
		return "", err
	}
	resolveLogger(w.Logger).Debug("outbox entry written",
		"event", "outbox_write_succeeded",
		"module", "core/outbox",
		"layer", "application",
		"entry_id", id,
		"event_type", string(envelope.EventType),
	)
	return id, nil
}

// WriteBatch persists all envelopes atomically; all-or-nothing.
func (w Writer) WriteBatch(ctx context.Context, envelopes []events.Envelope, partitionKey string) ([]string, error) {
	for _, e := range envelopes {
		if strings.TrimSpace(e.EventID) == "" || e.EventType == "" {
			return nil, domainerrors.ErrInvalidEnvelope
		}
	}
	ids, err := w.Repo.WriteBatch(ctx, envelopes, partitionKey)
	if err != nil {
		resolveLogger(w.Logger).Error("outbox batch write failed",
			"event", "outbox_write_batch_failed",
			"module", "core/outbox",
			"layer", "application",
			"count", len(envelopes),
			"error", err.Error(),
		)
		return nil, err
	}
	return ids, nil
}

// GetPending returns up to limit Pending entries in ascending created_at
// order. limit<=0 returns an empty slice per the boundary behaviour in
// this ("get_pending(limit=0) returns empty").
func (w Writer) GetPending(ctx context.Context, limit int) ([]ports.Entry, error) {
	if limit <= 0 {
		return []ports.Entry{}, nil
	}
	return w.Repo.GetPending(ctx, limit)
}

// MarkPublished is idempotent: re-marking an already-Published entry is a
// no-op, delegated to the storage port.
func (w Writer) MarkPublished(ctx context.Context, entryID string) error {
	return w.Repo.MarkPublished(ctx, entryID)
}

// MarkFailed updates last_error and increments attempts; marking an
// already-Failed entry simply refreshes those fields.
func (w Writer) MarkFailed(ctx context.Context, entryID string, cause error) error {
	return w.Repo.MarkFailed(ctx, entryID, cause)
}

// CleanupOld deletes Published entries older than the given age.
func (w Writer) CleanupOld(ctx context.Context, olderThan time.Duration) (int, error) {
	return w.Repo.CleanupOld(ctx, olderThan)
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
