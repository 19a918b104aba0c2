package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"wayfinder/contexts/billing/membership-service/domain"
	domainerrors "wayfinder/contexts/billing/membership-service/domain/errors"
)

func TestSaveAndFindByUserIDRoundTrips(t *testing.T) {
	store := NewStore()
	membership := domain.Membership{
		MembershipID: "mem-1",
		UserID:       "user-1",
		Tier:         domain.TierPro,
		Status:       domain.StatusActive,
		CreatedAt:    time.Unix(0, 0),
		UpdatedAt:    time.Unix(0, 0),
	}
	if err := store.Save(context.Background(), membership); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.FindByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FindByUserID: %v", err)
	}
	if got.MembershipID != membership.MembershipID {
		t.Fatalf("MembershipID = %q, want %q", got.MembershipID, membership.MembershipID)
	}
}

func TestFindByUserIDMissingReturnsNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.FindByUserID(context.Background(), "ghost")
	if !errors.Is(err, domainerrors.ErrMembershipNotFound) {
		t.Fatalf("err = %v, want ErrMembershipNotFound", err)
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	store := NewStore()
	err := store.Update(context.Background(), domain.Membership{UserID: "ghost"})
	if !errors.Is(err, domainerrors.ErrMembershipNotFound) {
		t.Fatalf("err = %v, want ErrMembershipNotFound", err)
	}
}

func TestUpdateOverwritesExisting(t *testing.T) {
	store := NewStore()
	membership := domain.Membership{UserID: "user-1", Tier: domain.TierFree, Status: domain.StatusActive}
	if err := store.Save(context.Background(), membership); err != nil {
		t.Fatalf("Save: %v", err)
	}

	membership.Status = domain.StatusCancelled
	if err := store.Update(context.Background(), membership); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := store.FindByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FindByUserID: %v", err)
	}
	if got.Status != domain.StatusCancelled {
		t.Fatalf("Status = %q, want cancelled", got.Status)
	}
}
