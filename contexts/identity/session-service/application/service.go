// Package application implements session creation, authentication, and
// revocation, using the same injected-ports struct and structured-logging
// idiom as this repo's other context services.
package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"wayfinder/contexts/identity/session-service/domain"
	domainerrors "wayfinder/contexts/identity/session-service/domain/errors"
	"wayfinder/contexts/identity/session-service/ports"
	"wayfinder/internal/shared/events"
)

// SessionTTL is the default session lifetime; CreateSession honors it
// unless a caller-supplied TTL override is wired in later.
const SessionTTL = 24 * time.Hour

type Service struct {
	Repo      ports.Repository
	Validator ports.TokenValidator
	Auth      ports.AuthProvider
	Outbox    ports.OutboxWriter
	IDs       ports.IDGenerator
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

func (s Service) newID() string {
	if s.IDs != nil {
		return s.IDs()
	}
	return ""
}

// CreateSession validates token against the identity provider and persists
// a new session row for the resolved principal.
func (s Service) CreateSession(ctx context.Context, token string) (domain.Session, domain.AuthenticatedUser, error) {
	logger := resolveLogger(s.Logger)
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, domain.AuthenticatedUser{}, domainerrors.ErrInvalidToken
	}

	user, err := s.Validator.ValidateToken(ctx, token)
	if err != nil {
		logger.Warn("token validation failed",
			"event", "session_token_invalid",
			"module", "identity/session-service",
			"error", err.Error(),
		)
		return domain.Session{}, domain.AuthenticatedUser{}, domainerrors.ErrInvalidToken
	}

	now := s.now()
	session := domain.Session{
		SessionID: s.newID(),
		UserID:    user.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.Repo.Save(ctx, session); err != nil {
		return domain.Session{}, domain.AuthenticatedUser{}, err
	}

	s.publish(ctx, domain.CreatedEvent{SessionID: session.SessionID, UserID: session.UserID}, session.UserID)

	logger.Info("session created",
		"event", "session_created",
		"module", "identity/session-service",
		"session_id", session.SessionID,
		"user_id", session.UserID,
	)
	return session, user, nil
}

// Authenticate resolves sessionID to its current principal, refusing live
// sessions that have expired or been revoked since creation.
func (s Service) Authenticate(ctx context.Context, sessionID string) (domain.AuthenticatedUser, error) {
	session, err := s.Repo.Find(ctx, sessionID)
	if err != nil {
		return domain.AuthenticatedUser{}, err
	}
	now := s.now()
	if session.RevokedAt != nil {
		return domain.AuthenticatedUser{}, domainerrors.ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		return domain.AuthenticatedUser{}, domainerrors.ErrSessionExpired
	}
	return s.Auth.GetUser(ctx, session.UserID)
}

// Revoke invalidates a session immediately, independent of its ExpiresAt.
func (s Service) Revoke(ctx context.Context, sessionID string) error {
	session, err := s.Repo.Find(ctx, sessionID)
	if err != nil {
		return err
	}
	now := s.now()
	session.RevokedAt = &now
	return s.Repo.Save(ctx, session)
}

func (s Service) publish(ctx context.Context, event events.DomainEvent, partitionKey string) {
	if s.Outbox == nil {
		return
	}
	envelope, err := events.ToEnvelope(event, s.now)
	if err != nil {
		resolveLogger(s.Logger).Warn("session event build failed",
			"event", "session_event_build_failed",
			"module", "identity/session-service",
			"error", err.Error(),
		)
		return
	}
	if _, err := s.Outbox.Write(ctx, envelope, partitionKey); err != nil {
		resolveLogger(s.Logger).Warn("session event write failed",
			"event", "session_event_write_failed",
			"module", "identity/session-service",
			"event_type", string(envelope.EventType),
			"error", err.Error(),
		)
	}
}

func resolveLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
