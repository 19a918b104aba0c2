// Package apperr is the closed DomainError taxonomy shared across bounded
// contexts. Bounded-context domain/errors packages define their own
// sentinel errors for context-specific conditions and wrap one of these
// codes so the HTTP composition root can map any context's error to a
// status code with a single switch.
package apperr

import (
	"errors"
	"fmt"
)

// Code is the closed set of domain-level error classifications.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeForbidden           Code = "forbidden"
	CodeInvalidTransition   Code = "invalid_transition"
	CodeValidationFailed    Code = "validation_failed"
	CodeAlreadyExists       Code = "already_exists"
	CodeConflict            Code = "conflict"
	CodeExternalServiceErr  Code = "external_service_error"
	CodeDatabaseError       Code = "database_error"
	CodeInternalError       Code = "internal_error"
)

// AccessDeniedReason enumerates why a Forbidden was raised, so adapters can
// render a specific user-facing message without parsing error text.
type AccessDeniedReason string

const (
	AccessDeniedUnknown       AccessDeniedReason = ""
	AccessDeniedTierLimit     AccessDeniedReason = "tier_limit_exceeded"
	AccessDeniedNoMembership  AccessDeniedReason = "no_active_membership"
	AccessDeniedSuspended     AccessDeniedReason = "account_suspended"
	AccessDeniedInsufficient  AccessDeniedReason = "insufficient_permission"
)

// Error is the concrete error type every core operation returns. Handlers at
// the HTTP edge switch on Code (via errors.As), never on Error() text.
type Error struct {
	Code    Code
	Reason  AccessDeniedReason // only meaningful when Code == CodeForbidden
	Field   string             // only meaningful when Code == CodeValidationFailed
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.NotFound) match any *Error with that code,
// regardless of message/wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel instances for errors.Is comparisons against a bare code, following
// the standard errors.New sentinel convention but carrying a structured code.
var (
	NotFound     = &Error{Code: CodeNotFound}
	Forbidden    = &Error{Code: CodeForbidden}
	InvalidTrans = &Error{Code: CodeInvalidTransition}
	Validation   = &Error{Code: CodeValidationFailed}
	AlreadyExist = &Error{Code: CodeAlreadyExists}
	Conflict     = &Error{Code: CodeConflict}
	ExternalSvc  = &Error{Code: CodeExternalServiceErr}
	Database     = &Error{Code: CodeDatabaseError}
	Internal     = &Error{Code: CodeInternalError}
)

// NotFoundf builds a CodeNotFound error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenReason builds a CodeForbidden error carrying a structured reason.
func ForbiddenReason(reason AccessDeniedReason, format string, args ...any) error {
	return &Error{Code: CodeForbidden, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionf builds a CodeInvalidTransition error.
func InvalidTransitionf(format string, args ...any) error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// ValidationFailed builds a CodeValidationFailed error naming the offending field.
func ValidationFailed(field, message string) error {
	return &Error{Code: CodeValidationFailed, Field: field, Message: message}
}

// AlreadyExistsf builds a CodeAlreadyExists error.
func AlreadyExistsf(format string, args ...any) error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a CodeConflict error (optimistic concurrency loss).
func Conflictf(format string, args ...any) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// ExternalServiceErrorf wraps an upstream dependency failure.
func ExternalServiceErrorf(cause error, format string, args ...any) error {
	return &Error{Code: CodeExternalServiceErr, Message: fmt.Sprintf(format, args...), Err: cause}
}

// DatabaseErrorf wraps an infrastructure-level read/write failure.
func DatabaseErrorf(cause error, format string, args ...any) error {
	return &Error{Code: CodeDatabaseError, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Internalf wraps an unclassified bug, surfaced as 500 at the HTTP edge.
func Internalf(cause error, format string, args ...any) error {
	return &Error{Code: CodeInternalError, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf extracts the Code of err if it is (or wraps) an *Error, returning
// CodeInternalError otherwise so callers always have something to switch on.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}

// ReasonOf extracts the AccessDeniedReason of err if present.
func ReasonOf(err error) AccessDeniedReason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return AccessDeniedUnknown
}
