// Package domain holds the session aggregate: a thin record binding a
// session_id, the identity every other context threads through, to an
// authenticated user, fronting an out-of-scope identity provider behind
// the SessionValidator/AuthProvider adapter boundary.
package domain

import "time"

// AuthenticatedUser is the identity provider's resolved principal, carried
// opaquely past this boundary — this context never inspects provider-
// specific claims beyond what it declares here.
type AuthenticatedUser struct {
	UserID      string
	Email       string
	DisplayName string
}

// Session is one validated-token's lifetime: created once at login, looked
// up on every subsequent request to resolve UserID without re-validating
// the token.
type Session struct {
	SessionID string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsLive reports whether the session is neither expired nor revoked as of now.
func (s Session) IsLive(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
