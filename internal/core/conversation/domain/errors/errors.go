package errors

import "errors"

var (
	ErrInvalidTransition     = errors.New("conversation: invalid step transition")
	ErrNotEligibleToComplete = errors.New("conversation: current component is not eligible to complete")
	ErrCycleAlreadyStarted   = errors.New("conversation: cycle already has conversation state")
	ErrCycleNotFound         = errors.New("conversation: cycle has no conversation state")
	ErrRateLimited           = errors.New("conversation: regenerate rejected by rate limiter")
	ErrNoMessageToRegenerate = errors.New("conversation: no user message to regenerate a response for")
)
