package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	contractsv1 "wayfinder/contracts/gen/events/v1"
)

// Envelope is the transport-level wrapper around a domain event. Once it has
// been observed by any subsystem beyond its creator (written to the outbox,
// handed to the event bus) it is immutable: every field below is set once by
// ToEnvelope and only WithCorrelationID/WithCausationID/WithUserID may touch
// it afterward, and only before the first publish.
type Envelope struct {
	EventID       string
	EventType     Type
	AggregateID   string
	AggregateType string
	OccurredAt    time.Time
	CorrelationID string
	CausationID   string
	UserID        string
	Payload       json.RawMessage
}

// DomainEvent is the trait any payload must satisfy to be written to the
// outbox. EventType, AggregateID, and AggregateType declare the envelope
// identity fields; the payload itself is whatever the concrete type is.
type DomainEvent interface {
	EventType() Type
	AggregateID() string
	AggregateType() string
}

// ToEnvelope constructs an Envelope from a DomainEvent. It is pure and
// deterministic given its inputs save for event_id generation, which uses a
// collision-resistant random identifier (UUIDv4), and occurred_at, which is
// read once from the supplied clock function.
func ToEnvelope(event DomainEvent, now func() time.Time) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		OccurredAt:    now().UTC(),
		Payload:       payload,
	}, nil
}

// WithCorrelationID attaches a correlation id. Calling it twice overwrites
// the prior value.
func (e Envelope) WithCorrelationID(id string) Envelope {
	e.CorrelationID = id
	return e
}

// WithCausationID attaches the event_id that caused this one. Overwrites on
// repeated calls.
func (e Envelope) WithCausationID(id string) Envelope {
	e.CausationID = id
	return e
}

// WithUserID attaches the acting user. Overwrites on repeated calls.
func (e Envelope) WithUserID(id string) Envelope {
	e.UserID = id
	return e
}

// ToWire converts the internal Envelope to the versioned wire contract used
// by the outbox and any cross-process publisher.
func (e Envelope) ToWire(sourceService, partitionKeyPath, partitionKey string, schemaVersion int) contractsv1.Envelope {
	return contractsv1.Envelope{
		EventID:          e.EventID,
		EventType:        string(e.EventType),
		AggregateID:      e.AggregateID,
		AggregateType:    e.AggregateType,
		OccurredAt:       e.OccurredAt,
		SourceService:    sourceService,
		TraceID:          e.CorrelationID,
		SchemaVersion:    schemaVersion,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Metadata: contractsv1.Metadata{
			CorrelationID: e.CorrelationID,
			CausationID:   e.CausationID,
			UserID:        e.UserID,
		},
		Data: append(json.RawMessage(nil), e.Payload...),
	}
}

// FromWire reconstructs an Envelope from its wire representation, used when
// the outbox publisher replays a persisted row back through the event bus.
func FromWire(w contractsv1.Envelope) Envelope {
	return Envelope{
		EventID:       w.EventID,
		EventType:     Type(w.EventType),
		AggregateID:   w.AggregateID,
		AggregateType: w.AggregateType,
		OccurredAt:    w.OccurredAt,
		CorrelationID: w.Metadata.CorrelationID,
		CausationID:   w.Metadata.CausationID,
		UserID:        w.Metadata.UserID,
		Payload:       append(json.RawMessage(nil), w.Data...),
	}
}
