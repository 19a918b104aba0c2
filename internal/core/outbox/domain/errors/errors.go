package errors

import "errors"

var (
	// ErrEntryNotFound is returned by MarkPublished/MarkFailed when the
	// entry_id does not exist.
	ErrEntryNotFound = errors.New("outbox entry not found")
	// ErrInvalidEnvelope is returned when a write call is given an
	// envelope missing required identity fields.
	ErrInvalidEnvelope = errors.New("outbox envelope is invalid")
)
