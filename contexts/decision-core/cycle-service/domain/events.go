package domain

import "wayfinder/internal/shared/events"

// CycleCreatedEvent is published when a fresh, unbranched cycle starts.
type CycleCreatedEvent struct {
	CycleID   string `json:"cycle_id"`
	SessionID string `json:"session_id"`
}

func (CycleCreatedEvent) EventType() events.Type { return events.TypeCycleCreated }
func (e CycleCreatedEvent) AggregateID() string  { return e.CycleID }
func (CycleCreatedEvent) AggregateType() string  { return "cycle" }

// CycleBranchedEvent is published when Branch succeeds.
type CycleBranchedEvent struct {
	CycleID       string `json:"cycle_id"`
	SessionID     string `json:"session_id"`
	ParentCycleID string `json:"parent_cycle_id"`
	BranchPoint   string `json:"branch_point"`
}

func (CycleBranchedEvent) EventType() events.Type { return events.TypeCycleBranched }
func (e CycleBranchedEvent) AggregateID() string  { return e.CycleID }
func (CycleBranchedEvent) AggregateType() string  { return "cycle" }

// ComponentCompletedEvent is published when a component slot is completed.
// Its payload shape matches internal/core/analysis/domain.ComponentCompletedPayload
// field-for-field, since that is the consumer this event exists to feed.
type ComponentCompletedEvent struct {
	CycleID   string `json:"cycle_id"`
	SessionID string `json:"session_id"`
	Component string `json:"component"`
}

func (ComponentCompletedEvent) EventType() events.Type { return events.TypeComponentCompleted }
func (e ComponentCompletedEvent) AggregateID() string  { return e.CycleID }
func (ComponentCompletedEvent) AggregateType() string  { return "cycle" }
