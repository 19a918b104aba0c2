// Package application implements the webhook delivery algorithm: verify
// signature, consult the idempotency store before any side effect, process
// at most once.
package application

import (
	"context"
	"errors"
	"time"

	"wayfinder/internal/core/resilience/webhookidempotency/domain"
	"wayfinder/internal/core/resilience/webhookidempotency/ports"
)

// ErrInvalidSignature is returned when the upstream's signature does not
// verify; the handler MUST stop before touching the idempotency store or
// processing the payload.
var ErrInvalidSignature = errors.New("webhookidempotency: invalid webhook signature")

// Result is the outcome a caller (an HTTP adapter) reports back upstream.
type Result int

const (
	Processed Result = iota
	AlreadyProcessed
)

// SignatureVerifier checks a raw webhook body against its provider-supplied
// signature header.
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

// Processor applies the side effects of one webhook delivery. Implemented
// per source (e.g. the billing context's subscription-event processor).
type Processor interface {
	Process(ctx context.Context, eventID string, payload []byte) error
}

// Clock abstracts time.Now so tests can pin processed_at.
type Clock func() time.Time

// Handler ties a SignatureVerifier, a Processor, and a Store together into
// the at-most-once delivery algorithm.
type Handler struct {
	Source    string
	Verifier  SignatureVerifier
	Processor Processor
	Store     ports.Store
	Clock     Clock
}

func (h Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now().UTC()
}

// Deliver runs one webhook delivery through the algorithm: verify
// signature; save a record for eventID BEFORE any side effect; if the
// store reports AlreadyExists, return AlreadyProcessed without invoking
// Processor again; otherwise process the payload.
func (h Handler) Deliver(ctx context.Context, eventID, signature string, payload []byte) (Result, error) {
	if err := h.Verifier.Verify(payload, signature); err != nil {
		return 0, ErrInvalidSignature
	}

	record := domain.Record{
		EventID:     eventID,
		Source:      h.Source,
		Result:      "success",
		Payload:     payload,
		ProcessedAt: h.now(),
	}
	outcome, err := h.Store.Save(ctx, record)
	if err != nil {
		return 0, err
	}
	if outcome == domain.AlreadyExists {
		return AlreadyProcessed, nil
	}

	if err := h.Processor.Process(ctx, eventID, payload); err != nil {
		return 0, err
	}
	return Processed, nil
}
