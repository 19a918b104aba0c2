package domain

import "wayfinder/internal/shared/events"

// CreatedEvent is published on membership.created.v1.
type CreatedEvent struct {
	MembershipID string `json:"membership_id"`
	UserID       string `json:"user_id"`
	Tier         string `json:"tier"`
	IsFree       bool   `json:"is_free"`
}

func (CreatedEvent) EventType() events.Type { return events.TypeMembershipCreatedV1 }
func (e CreatedEvent) AggregateID() string  { return e.MembershipID }
func (CreatedEvent) AggregateType() string  { return "membership" }

// UpdatedEvent is published on membership.updated — status transitions
// driven by the payment provider's webhook confirmations.
type UpdatedEvent struct {
	MembershipID string `json:"membership_id"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`
}

func (UpdatedEvent) EventType() events.Type { return events.TypeMembershipUpdated }
func (e UpdatedEvent) AggregateID() string  { return e.MembershipID }
func (UpdatedEvent) AggregateType() string  { return "membership" }
