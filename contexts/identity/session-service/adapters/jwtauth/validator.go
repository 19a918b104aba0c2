// Package jwtauth adapts self-issued JWTs to ports.TokenValidator and
// ports.AuthProvider, following r3e-network-service_layer's go.mod choice of
// golang-jwt/jwt for bearer-token verification — the only JWT library
// retrieved anywhere in the example pack.
package jwtauth

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"wayfinder/contexts/identity/session-service/domain"
	domainerrors "wayfinder/contexts/identity/session-service/domain/errors"
)

// claims is the token payload this service trusts: the identity provider
// that minted the token is responsible for everything beyond these fields.
type claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Validator verifies bearer tokens signed with a shared secret. It also
// serves as the AuthProvider: every validated token's claims are cached by
// subject so a later GetUser (re-resolving an already-live session, without
// the original token in hand) returns the same profile.
type Validator struct {
	secret []byte

	mu    sync.RWMutex
	cache map[string]domain.AuthenticatedUser
}

func New(secret string) *Validator {
	return &Validator{secret: []byte(secret), cache: make(map[string]domain.AuthenticatedUser)}
}

func (v *Validator) ValidateToken(_ context.Context, token string) (domain.AuthenticatedUser, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwtauth: unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.AuthenticatedUser{}, domainerrors.ErrInvalidToken
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return domain.AuthenticatedUser{}, domainerrors.ErrInvalidToken
	}

	user := domain.AuthenticatedUser{UserID: c.Subject, Email: c.Email, DisplayName: c.DisplayName}
	v.mu.Lock()
	v.cache[user.UserID] = user
	v.mu.Unlock()
	return user, nil
}

// GetUser re-resolves a previously validated subject's profile. A subject
// this process never validated a token for (e.g. after a restart) is not
// recoverable from this cache alone — callers needing durability across
// restarts should pair this with a real identity provider's profile API.
func (v *Validator) GetUser(_ context.Context, userID string) (domain.AuthenticatedUser, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	user, ok := v.cache[userID]
	if !ok {
		return domain.AuthenticatedUser{}, domainerrors.ErrSessionNotFound
	}
	return user, nil
}
