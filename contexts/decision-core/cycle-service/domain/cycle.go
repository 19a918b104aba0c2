// Package domain holds the Cycle aggregate: the fixed, ordered set of
// component slots a decision cycle owns, and its branch/parent structure.
package domain

import (
	"encoding/json"
	"time"

	domainerrors "wayfinder/contexts/decision-core/cycle-service/domain/errors"
)

// Component mirrors conversation/domain.Component's wire values. Declared
// locally, not imported, so this package never depends on conversation —
// the same one-way-dependency isolation used by internal/core/analysis for
// the same component name vocabulary.
type Component string

const (
	ComponentIssueRaising    Component = "issue_raising"
	ComponentProblemFrame    Component = "problem_frame"
	ComponentObjectives      Component = "objectives"
	ComponentAlternatives    Component = "alternatives"
	ComponentConsequences    Component = "consequences"
	ComponentTradeoffs       Component = "tradeoffs"
	ComponentDecisionQuality Component = "decision_quality"
)

// Order is the declared component sequence.
var Order = []Component{
	ComponentIssueRaising,
	ComponentProblemFrame,
	ComponentObjectives,
	ComponentAlternatives,
	ComponentConsequences,
	ComponentTradeoffs,
	ComponentDecisionQuality,
}

func IndexOf(c Component) int {
	for i, candidate := range Order {
		if candidate == c {
			return i
		}
	}
	return -1
}

// ComponentStatus is a component slot's progress within a cycle.
type ComponentStatus string

const (
	ComponentNotStarted ComponentStatus = "not_started"
	ComponentInProgress ComponentStatus = "in_progress"
	ComponentCompleted  ComponentStatus = "completed"
)

// Status is the cycle's own lifecycle, independent of any single
// component's progress.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// ComponentSlot is one component's stored progress and structured output.
type ComponentSlot struct {
	Status    ComponentStatus
	Output    json.RawMessage
	UpdatedAt time.Time
}

// Cycle is a single pass through the seven decision components. A branched
// cycle carries a non-nil ParentCycleID and BranchPoint: a branch has
// exactly one parent, and the branch point must be a started component in
// the parent. That invariant is enforced by BranchCycle, not by this
// struct alone — Cycle itself only stores the resulting shape.
type Cycle struct {
	CycleID       string
	SessionID     string
	ParentCycleID *string
	BranchPoint   *Component
	Status        Status
	Components    map[Component]ComponentSlot
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewCycle creates a fresh, unbranched cycle with every component slot
// NotStarted except the first, which starts InProgress.
func NewCycle(cycleID, sessionID string, now time.Time) Cycle {
	slots := make(map[Component]ComponentSlot, len(Order))
	for i, c := range Order {
		status := ComponentNotStarted
		if i == 0 {
			status = ComponentInProgress
		}
		slots[c] = ComponentSlot{Status: status, UpdatedAt: now}
	}
	return Cycle{
		CycleID:    cycleID,
		SessionID:  sessionID,
		Status:     StatusActive,
		Components: slots,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Branch produces a new cycle that copies every component slot up to and
// including branchPoint, reopens branchPoint's slot to InProgress for
// revision, and leaves every later slot NotStarted — per this branch
// semantics. Fails with ErrBranchPointNotStarted if the parent has not at
// least started branchPoint.
func (c Cycle) Branch(childCycleID string, branchPoint Component, now time.Time) (Cycle, error) {
	parentSlot, ok := c.Components[branchPoint]
	if !ok {
		return Cycle{}, domainerrors.ErrComponentNotFound
	}
	if parentSlot.Status == ComponentNotStarted {
		return Cycle{}, domainerrors.ErrBranchPointNotStarted
	}

	branchIdx := IndexOf(branchPoint)
	slots := make(map[Component]ComponentSlot, len(Order))
	for i, comp := range Order {
		switch {
		case i < branchIdx:
			slots[comp] = cloneSlot(c.Components[comp])
		case i == branchIdx:
			copied := cloneSlot(c.Components[comp])
			copied.Status = ComponentInProgress
			copied.UpdatedAt = now
			slots[comp] = copied
		default:
			slots[comp] = ComponentSlot{Status: ComponentNotStarted, UpdatedAt: now}
		}
	}

	parentID := c.CycleID
	bp := branchPoint
	return Cycle{
		CycleID:       childCycleID,
		SessionID:     c.SessionID,
		ParentCycleID: &parentID,
		BranchPoint:   &bp,
		Status:        StatusActive,
		Components:    slots,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CompleteComponent stores output for component and marks it Completed.
// Fails with ErrComponentAlreadyCompleted if the slot is already Completed
// (Cycle has no reopen operation of its own, unlike
// conversation/domain.State.Revise; redoing a component requires a branch).
func (c Cycle) CompleteComponent(component Component, output json.RawMessage, now time.Time) (Cycle, error) {
	slot, ok := c.Components[component]
	if !ok {
		return c, domainerrors.ErrComponentNotFound
	}
	if slot.Status == ComponentCompleted {
		return c, domainerrors.ErrComponentAlreadyCompleted
	}
	slot.Status = ComponentCompleted
	slot.Output = output
	slot.UpdatedAt = now
	c.Components[component] = slot
	c.UpdatedAt = now

	if component == ComponentDecisionQuality {
		c.Status = StatusCompleted
	}
	return c, nil
}

// Progress reports how many of the seven components are Completed.
func (c Cycle) Progress() (completed, total int) {
	for _, slot := range c.Components {
		if slot.Status == ComponentCompleted {
			completed++
		}
	}
	return completed, len(Order)
}

func cloneSlot(s ComponentSlot) ComponentSlot {
	out := s
	out.Output = append(json.RawMessage(nil), s.Output...)
	return out
}
