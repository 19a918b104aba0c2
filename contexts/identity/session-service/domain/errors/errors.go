// Package errors declares session-specific domain failures.
package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("session: not found")
	ErrSessionExpired  = errors.New("session: expired")
	ErrSessionRevoked  = errors.New("session: revoked")
	ErrInvalidToken    = errors.New("session: invalid token")
)
