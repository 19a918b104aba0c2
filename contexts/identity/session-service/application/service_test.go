package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfinder/contexts/identity/session-service/adapters/memory"
	"wayfinder/contexts/identity/session-service/domain"
	domainerrors "wayfinder/contexts/identity/session-service/domain/errors"
	"wayfinder/internal/shared/events"
)

type fakeValidator struct {
	user domain.AuthenticatedUser
	err  error
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) (domain.AuthenticatedUser, error) {
	if f.err != nil {
		return domain.AuthenticatedUser{}, f.err
	}
	return f.user, nil
}

type fakeAuthProvider struct {
	users map[string]domain.AuthenticatedUser
}

func (f *fakeAuthProvider) GetUser(ctx context.Context, userID string) (domain.AuthenticatedUser, error) {
	user, ok := f.users[userID]
	if !ok {
		return domain.AuthenticatedUser{}, errors.New("user not found")
	}
	return user, nil
}

type fakeOutbox struct {
	written []events.Envelope
}

func (f *fakeOutbox) Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error) {
	f.written = append(f.written, envelope)
	return "outbox-1", nil
}

func sequentialIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func newTestService(t *testing.T, now time.Time) (Service, *memory.Store, *fakeValidator, *fakeAuthProvider, *fakeOutbox) {
	t.Helper()
	store := memory.NewStore()
	validator := &fakeValidator{user: domain.AuthenticatedUser{UserID: "user-1", Email: "user1@example.com"}}
	auth := &fakeAuthProvider{users: map[string]domain.AuthenticatedUser{
		"user-1": {UserID: "user-1", Email: "user1@example.com", DisplayName: "User One"},
	}}
	outbox := &fakeOutbox{}
	service := Service{
		Repo:      store,
		Validator: validator,
		Auth:      auth,
		Outbox:    outbox,
		IDs:       sequentialIDs("sess-1"),
		Clock:     func() time.Time { return now },
	}
	return service, store, validator, auth, outbox
}

func TestCreateSessionSucceeds(t *testing.T) {
	service, _, _, _, outbox := newTestService(t, time.Unix(1700000000, 0))

	session, user, err := service.CreateSession(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.SessionID != "sess-1" || session.UserID != "user-1" {
		t.Fatalf("session = %+v, want sess-1/user-1", session)
	}
	if user.UserID != "user-1" {
		t.Fatalf("user = %+v", user)
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Fatal("ExpiresAt should be after CreatedAt")
	}
	if len(outbox.written) != 1 || outbox.written[0].EventType != events.TypeSessionCreated {
		t.Fatalf("outbox.written = %+v, want one session.created event", outbox.written)
	}
}

func TestCreateSessionRejectsEmptyToken(t *testing.T) {
	service, _, _, _, _ := newTestService(t, time.Unix(0, 0))
	_, _, err := service.CreateSession(context.Background(), "  ")
	if !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestCreateSessionRejectsValidatorError(t *testing.T) {
	service, _, validator, _, _ := newTestService(t, time.Unix(0, 0))
	validator.err = errors.New("provider rejected token")

	_, _, err := service.CreateSession(context.Background(), "token-abc")
	if !errors.Is(err, domainerrors.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticateResolvesLiveSession(t *testing.T) {
	now := time.Unix(1700000000, 0)
	service, _, _, _, _ := newTestService(t, now)
	ctx := context.Background()

	session, _, err := service.CreateSession(ctx, "token-abc")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	user, err := service.Authenticate(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.DisplayName != "User One" {
		t.Fatalf("DisplayName = %q, want User One", user.DisplayName)
	}
}

func TestAuthenticateRefusesExpiredSession(t *testing.T) {
	created := time.Unix(1700000000, 0)
	service, store, _, _, _ := newTestService(t, created)
	ctx := context.Background()

	session, _, err := service.CreateSession(ctx, "token-abc")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	expired := session
	expired.ExpiresAt = created.Add(-time.Hour)
	if err := store.Save(ctx, expired); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, err = service.Authenticate(ctx, session.SessionID)
	if !errors.Is(err, domainerrors.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestAuthenticateRefusesRevokedSession(t *testing.T) {
	service, _, _, _, _ := newTestService(t, time.Unix(1700000000, 0))
	ctx := context.Background()

	session, _, err := service.CreateSession(ctx, "token-abc")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := service.Revoke(ctx, session.SessionID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	_, err = service.Authenticate(ctx, session.SessionID)
	if !errors.Is(err, domainerrors.ErrSessionRevoked) {
		t.Fatalf("err = %v, want ErrSessionRevoked", err)
	}
}

func TestAuthenticateRefusesUnknownSession(t *testing.T) {
	service, _, _, _, _ := newTestService(t, time.Unix(0, 0))
	_, err := service.Authenticate(context.Background(), "ghost")
	if !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
