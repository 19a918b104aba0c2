// Package ports declares the capability sets the session service depends
// on.
package ports

import (
	"context"
	"time"

	"wayfinder/contexts/identity/session-service/domain"
	"wayfinder/internal/shared/events"
)

type Repository interface {
	Save(ctx context.Context, session domain.Session) error
	Find(ctx context.Context, sessionID string) (domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// TokenValidator is the identity provider's "validate token → authenticated
// user" capability. This context never inspects a provider-specific token
// format; it only consumes the resolved principal.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.AuthenticatedUser, error)
}

// AuthProvider is the identity provider's "get_user by id" capability,
// used to re-resolve a principal's current profile on an already-live
// session without re-validating its token.
type AuthProvider interface {
	GetUser(ctx context.Context, userID string) (domain.AuthenticatedUser, error)
}

type IDGenerator func() string

type Clock func() time.Time

// OutboxWriter is the narrow outbox slice this context depends on.
type OutboxWriter interface {
	Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error)
}
