package domain

import "wayfinder/internal/shared/events"

// CreatedEvent is published on session.created once a token validates and
// a session row is persisted.
type CreatedEvent struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (CreatedEvent) EventType() events.Type { return events.TypeSessionCreated }
func (e CreatedEvent) AggregateID() string  { return e.SessionID }
func (CreatedEvent) AggregateType() string  { return "session" }
