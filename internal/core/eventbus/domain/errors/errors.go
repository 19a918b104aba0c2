package errors

import "errors"

var (
	// ErrNoHandlers names the case where no handler is subscribed to the
	// envelope's event_type. Bus.Publish does not return it: publishing with
	// no subscribers is logged and treated as success.
	ErrNoHandlers = errors.New("eventbus: no handlers subscribed for event type")
)
