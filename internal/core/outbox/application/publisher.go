package application

import (
	"context"
	"log/slog"
	"time"

	"wayfinder/internal/core/outbox/ports"
)

// Publisher is the background outbox relay. It alternates
// between Running (poll every PollInterval, invoking ProcessBatch) and,
// once a shutdown signal arrives, Draining (one final ProcessBatch, then
// exit). Multiple Publisher instances across process replicas compete for
// the same pending entries; ports.Repository.GetPending is responsible for
// preventing double-publish.
type Publisher struct {
	Repo      ports.Repository
	Bus       ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger

	// OnPublishOutcome, if set, is called once per entry with "published" or
	// "failed" after that entry's publish attempt resolves. The composition
	// root wires this to a metrics counter; this package never imports a
	// metrics library itself.
	OnPublishOutcome func(outcome string)
}

// Run polls every pollInterval until ctx is cancelled, at which point it
// performs one final ProcessBatch (the Draining transition) before
// returning. This is the long-lived task a cmd/worker process starts.
func (p Publisher) Run(ctx context.Context, pollInterval time.Duration) {
	logger := resolveLogger(p.Logger)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	logger.Info("outbox publisher starting",
		"event", "outbox_publisher_started",
		"module", "core/outbox",
		"layer", "application",
		"poll_interval_ms", pollInterval.Milliseconds(),
		"batch_size", p.batchSize(),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox publisher draining",
				"event", "outbox_publisher_draining",
				"module", "core/outbox",
				"layer", "application",
			)
			// Draining: one final batch using a fresh, short-lived context
			// since ctx itself is already cancelled.
			drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			count, err := p.ProcessBatch(drainCtx)
			cancel()
			if err != nil {
				logger.Error("outbox publisher drain batch failed",
					"event", "outbox_publisher_drain_failed",
					"module", "core/outbox",
					"layer", "application",
					"error", err.Error(),
				)
			}
			logger.Info("outbox publisher stopped",
				"event", "outbox_publisher_stopped",
				"module", "core/outbox",
				"layer", "application",
				"drained_count", count,
			)
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				logger.Error("outbox publisher batch failed",
					"event", "outbox_publisher_batch_failed",
					"module", "core/outbox",
					"layer", "application",
					"error", err.Error(),
				)
			}
		}
	}
}

// ProcessBatch claims up to BatchSize pending entries and publishes each
// through the event bus. One failing publish marks that entry Failed and
// continues to the next — it never aborts the batch. Entries within the
// batch are processed in created_at order (the order GetPending returns
// them in); there is no ordering guarantee across batches. It returns the
// count of successfully published entries.
func (p Publisher) ProcessBatch(ctx context.Context) (int, error) {
	logger := resolveLogger(p.Logger)
	entries, err := p.Repo.GetPending(ctx, p.batchSize())
	if err != nil {
		return 0, err
	}

	published := 0
	for _, entry := range entries {
		if err := p.Bus.Publish(ctx, entry.Envelope); err != nil {
			if markErr := p.Repo.MarkFailed(ctx, entry.EntryID, err); markErr != nil {
				logger.Error("outbox mark failed errored",
					"event", "outbox_mark_failed_errored",
					"module", "core/outbox",
					"layer", "application",
					"entry_id", entry.EntryID,
					"error", markErr.Error(),
				)
			}
			logger.Warn("outbox entry publish failed",
				"event", "outbox_entry_publish_failed",
				"module", "core/outbox",
				"layer", "application",
				"entry_id", entry.EntryID,
				"event_type", string(entry.Envelope.EventType),
				"error", err.Error(),
			)
			p.recordOutcome("failed")
			continue
		}
		if err := p.Repo.MarkPublished(ctx, entry.EntryID); err != nil {
			logger.Error("outbox mark published failed",
				"event", "outbox_mark_published_failed",
				"module", "core/outbox",
				"layer", "application",
				"entry_id", entry.EntryID,
				"error", err.Error(),
			)
			continue
		}
		published++
		p.recordOutcome("published")
	}

	if len(entries) > 0 {
		logger.Info("outbox batch processed",
			"event", "outbox_batch_processed",
			"module", "core/outbox",
			"layer", "application",
			"claimed_count", len(entries),
			"published_count", published,
		)
	}
	return published, nil
}

func (p Publisher) recordOutcome(outcome string) {
	if p.OnPublishOutcome != nil {
		p.OnPublishOutcome(outcome)
	}
}

func (p Publisher) batchSize() int {
	if p.BatchSize <= 0 {
		return 100
	}
	return p.BatchSize
}
