package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfinder/contexts/identity/session-service/domain"
	domainerrors "wayfinder/contexts/identity/session-service/domain/errors"
)

func TestSaveAndFindRoundTrips(t *testing.T) {
	store := NewStore()
	session := domain.Session{
		SessionID: "sess-1",
		UserID:    "user-1",
		CreatedAt: time.Unix(0, 0),
		ExpiresAt: time.Unix(1000, 0),
	}
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Find(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("UserID = %q, want user-1", got.UserID)
	}
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.Find(context.Background(), "ghost")
	if !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	store := NewStore()
	session := domain.Session{SessionID: "sess-1", UserID: "user-1"}
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := store.Find(context.Background(), "sess-1")
	if !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound after delete", err)
	}
}
