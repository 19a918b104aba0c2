// Package application implements the cycle service's three write
// operations: starting a fresh cycle, branching one, and completing a
// component slot — each publishing its declared domain event through the
// outbox in the same transaction-adjacent pattern used throughout this
// repo's core packages.
package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wayfinder/contexts/decision-core/cycle-service/domain"
	"wayfinder/contexts/decision-core/cycle-service/ports"
	"wayfinder/internal/shared/events"
)

// Clock abstracts time.Now so tests can pin timestamps.
type Clock func() time.Time

// IDGenerator mints cycle identities. Defined locally rather than reused
// from another context, matching the narrow-capability idiom used
// throughout this repo (e.g. campaign-service's ports.IDGenerator).
type IDGenerator func() string

// Service composes the cycle repository with outbox publication for the
// three declared write operations.
type Service struct {
	Cycles ports.CycleRepository
	Outbox ports.OutboxWriter
	IDs    IDGenerator
	Clock  Clock
	Logger *slog.Logger
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s Service) newID() string {
	if s.IDs != nil {
		return s.IDs()
	}
	return uuid.NewString()
}

// CreateCycle starts a fresh, unbranched cycle for sessionID and publishes
// cycle.created.
func (s Service) CreateCycle(ctx context.Context, sessionID string) (domain.Cycle, error) {
	cycle := domain.NewCycle(s.newID(), sessionID, s.now())
	if err := s.Cycles.Save(ctx, cycle); err != nil {
		return domain.Cycle{}, err
	}

	event := domain.CycleCreatedEvent{CycleID: cycle.CycleID, SessionID: cycle.SessionID}
	s.publish(ctx, event, cycle.CycleID)

	resolveLogger(s.Logger).Info("cycle created",
		"event", "cycle_created",
		"module", "decision-core/cycle-service",
		"cycle_id", cycle.CycleID,
		"session_id", cycle.SessionID,
	)
	return cycle, nil
}

// BranchCycle branches parentCycleID at branchPoint and publishes
// cycle.branched.
func (s Service) BranchCycle(ctx context.Context, parentCycleID string, branchPoint domain.Component) (domain.Cycle, error) {
	parent, err := s.Cycles.Find(ctx, parentCycleID)
	if err != nil {
		return domain.Cycle{}, err
	}

	child, err := parent.Branch(s.newID(), branchPoint, s.now())
	if err != nil {
		return domain.Cycle{}, err
	}
	if err := s.Cycles.Save(ctx, child); err != nil {
		return domain.Cycle{}, err
	}

	event := domain.CycleBranchedEvent{
		CycleID:       child.CycleID,
		SessionID:     child.SessionID,
		ParentCycleID: parentCycleID,
		BranchPoint:   string(branchPoint),
	}
	s.publish(ctx, event, child.CycleID)

	resolveLogger(s.Logger).Info("cycle branched",
		"event", "cycle_branched",
		"module", "decision-core/cycle-service",
		"cycle_id", child.CycleID,
		"parent_cycle_id", parentCycleID,
		"branch_point", string(branchPoint),
	)
	return child, nil
}

// CompleteComponent stores a component's structured output, marks it
// Completed, and publishes component.completed so subscribers — the
// analysis trigger handler among them — can react.
func (s Service) CompleteComponent(ctx context.Context, cycleID string, component domain.Component, output json.RawMessage) (domain.Cycle, error) {
	cycle, err := s.Cycles.Find(ctx, cycleID)
	if err != nil {
		return domain.Cycle{}, err
	}

	cycle, err = cycle.CompleteComponent(component, output, s.now())
	if err != nil {
		return domain.Cycle{}, err
	}
	if err := s.Cycles.Save(ctx, cycle); err != nil {
		return domain.Cycle{}, err
	}

	event := domain.ComponentCompletedEvent{
		CycleID:   cycle.CycleID,
		SessionID: cycle.SessionID,
		Component: string(component),
	}
	s.publish(ctx, event, cycle.CycleID)

	return cycle, nil
}

func (s Service) publish(ctx context.Context, event events.DomainEvent, partitionKey string) {
	envelope, err := events.ToEnvelope(event, s.now)
	if err != nil {
		resolveLogger(s.Logger).Warn("cycle event build failed",
			"event", "cycle_event_build_failed",
			"module", "decision-core/cycle-service",
			"error", err.Error(),
		)
		return
	}
	if _, err := s.Outbox.Write(ctx, envelope, partitionKey); err != nil {
		resolveLogger(s.Logger).Warn("cycle event write failed",
			"event", "cycle_event_write_failed",
			"module", "decision-core/cycle-service",
			"event_type", string(envelope.EventType),
			"error", err.Error(),
		)
	}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
