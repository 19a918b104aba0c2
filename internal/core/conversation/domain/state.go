package domain

import (
	"time"

	domainerrors "wayfinder/internal/core/conversation/domain/errors"
)

// Role distinguishes who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a cycle's conversation history.
type Message struct {
	Role      Role
	Content   string
	CreatedAt time.Time
}

// EligibilityPolicy decides whether the current component may be marked
// Completed. The conversation package does not know the domain reason a
// component is or isn't eligible (e.g. "objectives list must be non-empty")
// — that decision lives with the caller (the command handler composing this
// state machine with read models from the relevant context).
type EligibilityPolicy func(current Component, state State) bool

// State is one cycle's conversation state: its position in the step state
// machine and its accumulated message history.
type State struct {
	CycleID         string
	SessionID       string
	CurrentStep     Component
	ComponentStatus map[Component]Status
	MessageHistory  []Message
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewState creates fresh state positioned at initialStep, with every
// declared component NotStarted except initialStep, which starts
// InProgress.
func NewState(cycleID, sessionID string, initialStep Component, now time.Time) State {
	statuses := make(map[Component]Status, len(Order))
	for _, c := range Order {
		statuses[c] = StatusNotStarted
	}
	if IndexOf(initialStep) >= 0 {
		statuses[initialStep] = StatusInProgress
	}
	return State{
		CycleID:         cycleID,
		SessionID:       sessionID,
		CurrentStep:     initialStep,
		ComponentStatus: statuses,
		MessageHistory:  []Message{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AppendMessage appends msg to the history, returning the updated state.
func (s State) AppendMessage(msg Message) State {
	s.MessageHistory = append(append([]Message(nil), s.MessageHistory...), msg)
	return s
}

// ApplyContinue leaves CurrentStep unchanged (intent routing no-op).
func (s State) ApplyContinue(now time.Time) State {
	s.UpdatedAt = now
	return s
}

// ApplyComplete marks CurrentStep Completed and advances to the next
// declared component, if one exists. Refuses if eligible reports the
// current component is not yet eligible to complete.
func (s State) ApplyComplete(eligible EligibilityPolicy, now time.Time) (State, error) {
	if eligible != nil && !eligible(s.CurrentStep, s) {
		return s, domainerrors.ErrNotEligibleToComplete
	}
	s.ComponentStatus[s.CurrentStep] = StatusCompleted
	if next, ok := Next(s.CurrentStep); ok {
		s.CurrentStep = next
		if s.ComponentStatus[next] == StatusNotStarted {
			s.ComponentStatus[next] = StatusInProgress
		}
	}
	s.UpdatedAt = now
	return s, nil
}

// ApplyNavigate moves CurrentStep to target. Permitted iff target is
// NotStarted and every component before it in Order is Completed, OR target
// has already been started (InProgress or Completed) — a revisit. Any other
// transition fails with ErrInvalidTransition and state is unchanged.
func (s State) ApplyNavigate(target Component, now time.Time) (State, error) {
	idx := IndexOf(target)
	if idx < 0 {
		return s, domainerrors.ErrInvalidTransition
	}

	status := s.ComponentStatus[target]
	if status == StatusInProgress || status == StatusCompleted {
		s.CurrentStep = target
		s.UpdatedAt = now
		return s, nil
	}

	for i := 0; i < idx; i++ {
		if s.ComponentStatus[Order[i]] != StatusCompleted {
			return s, domainerrors.ErrInvalidTransition
		}
	}
	s.CurrentStep = target
	s.ComponentStatus[target] = StatusInProgress
	s.UpdatedAt = now
	return s, nil
}

// Revise reopens a Completed component to InProgress, the explicit
// orthogonal operation branching uses — step routing alone never
// un-completes a component.
func (s State) Revise(component Component, now time.Time) (State, error) {
	if s.ComponentStatus[component] != StatusCompleted {
		return s, domainerrors.ErrInvalidTransition
	}
	s.ComponentStatus[component] = StatusInProgress
	s.UpdatedAt = now
	return s, nil
}
