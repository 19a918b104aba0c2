// Package application implements the membership service's write operations
// and the access-check query, following this repo's injected-ports
// application.Service shape.
package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"wayfinder/contexts/billing/membership-service/domain"
	domainerrors "wayfinder/contexts/billing/membership-service/domain/errors"
	"wayfinder/contexts/billing/membership-service/ports"
	"wayfinder/internal/shared/apperr"
	"wayfinder/internal/shared/events"
)

type Service struct {
	Repo    ports.Repository
	Payment ports.PaymentProvider
	Usage   ports.UsageTracker
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	Logger  *slog.Logger

	// DailyCostLimitCents gates every CheckAccess call, whatever the
	// feature; a zero value disables the usage check entirely (the service degrades
	// to pure tier entitlement checks, which is what every test but the
	// usage-limit ones exercises).
	DailyCostLimitCents int64
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// CreateFreeMembership creates an immediately-Active free-tier membership.
// Promo-code validation is out of scope; callers that need it apply it
// before calling this.
func (s Service) CreateFreeMembership(ctx context.Context, userID string) (domain.Membership, error) {
	userID = strings.TrimSpace(userID)
	if _, err := s.Repo.FindByUserID(ctx, userID); err == nil {
		return domain.Membership{}, domainerrors.ErrAlreadyHasMembership
	}

	now := s.now()
	membership := domain.Membership{
		MembershipID: uuid.NewString(),
		UserID:       userID,
		Tier:         domain.TierFree,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Save(ctx, membership); err != nil {
		return domain.Membership{}, err
	}
	s.publish(ctx, domain.CreatedEvent{
		MembershipID: membership.MembershipID,
		UserID:       membership.UserID,
		Tier:         string(membership.Tier),
		IsFree:       true,
	}, membership.MembershipID)

	resolveLogger(s.Logger).Info("membership created",
		"event", "membership_created",
		"module", "billing/membership-service",
		"membership_id", membership.MembershipID,
		"tier", string(membership.Tier),
	)
	return membership, nil
}

// CreatePaidMembership creates a Pending paid-tier membership and starts a
// payment provider checkout session. Activation happens when a webhook
// confirms payment (see Activate); this operation never blocks on that.
func (s Service) CreatePaidMembership(ctx context.Context, userID, email string, tier domain.Tier) (domain.Membership, ports.CheckoutSession, error) {
	userID = strings.TrimSpace(userID)
	if tier == domain.TierFree {
		return domain.Membership{}, ports.CheckoutSession{}, domainerrors.ErrInvalidTier
	}
	if _, err := s.Repo.FindByUserID(ctx, userID); err == nil {
		return domain.Membership{}, ports.CheckoutSession{}, domainerrors.ErrAlreadyHasMembership
	}

	customer, err := s.Payment.CreateCustomer(ctx, ports.CreateCustomerInput{UserID: userID, Email: email})
	if err != nil {
		return domain.Membership{}, ports.CheckoutSession{}, apperr.ExternalServiceErrorf(err, "membership: create payment customer")
	}

	now := s.now()
	membership := domain.Membership{
		MembershipID:      uuid.NewString(),
		UserID:            userID,
		Tier:              tier,
		Status:            domain.StatusPending,
		PaymentCustomerID: customer.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Repo.Save(ctx, membership); err != nil {
		return domain.Membership{}, ports.CheckoutSession{}, err
	}

	checkout, err := s.Payment.CreateCheckoutSession(ctx, ports.CreateCheckoutInput{
		UserID:     userID,
		Email:      email,
		Tier:       tier,
		CustomerID: customer.ID,
	})
	if err != nil {
		return domain.Membership{}, ports.CheckoutSession{}, apperr.ExternalServiceErrorf(err, "membership: create checkout session")
	}

	s.publish(ctx, domain.CreatedEvent{
		MembershipID: membership.MembershipID,
		UserID:       membership.UserID,
		Tier:         string(membership.Tier),
		IsFree:       false,
	}, membership.MembershipID)

	return membership, checkout, nil
}

// Activate transitions a pending paid membership to Active, called once a
// webhook (verified by resilience/webhookidempotency upstream) confirms
// payment.
func (s Service) Activate(ctx context.Context, userID string) (domain.Membership, error) {
	membership, err := s.Repo.FindByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.Membership{}, domainerrors.ErrMembershipNotFound
	}
	membership.Status = domain.StatusActive
	membership.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, membership); err != nil {
		return domain.Membership{}, err
	}
	s.publish(ctx, domain.UpdatedEvent{
		MembershipID: membership.MembershipID,
		UserID:       membership.UserID,
		Status:       string(membership.Status),
	}, membership.MembershipID)
	return membership, nil
}

// CheckAccess reports whether userID's current membership grants feature,
// and — for any feature, when DailyCostLimitCents is set —
// also refuses access once the day's usage has reached the declared limit.
// A Forbidden error always carries a structured AccessDeniedReason so the
// HTTP edge can render a specific message without parsing error text.
func (s Service) CheckAccess(ctx context.Context, userID, feature string) error {
	userID = strings.TrimSpace(userID)
	membership, err := s.Repo.FindByUserID(ctx, userID)
	if err != nil {
		return apperr.ForbiddenReason(apperr.AccessDeniedNoMembership, "membership: no active membership for user %s", userID)
	}
	if !membership.IsUsable() {
		return apperr.ForbiddenReason(apperr.AccessDeniedSuspended, "membership: membership not active for user %s", userID)
	}
	if !domain.HasFeature(membership.Tier, feature) {
		return apperr.ForbiddenReason(apperr.AccessDeniedInsufficient, "membership: tier %s does not grant %s", membership.Tier, feature)
	}
	if s.Usage != nil && s.DailyCostLimitCents > 0 {
		status, err := s.Usage.CheckDailyLimit(ctx, userID, s.DailyCostLimitCents)
		if err != nil {
			return apperr.ExternalServiceErrorf(err, "membership: check usage limit")
		}
		if status == ports.LimitBlocked {
			return apperr.ForbiddenReason(apperr.AccessDeniedTierLimit, "membership: daily usage limit reached for user %s", userID)
		}
	}
	return nil
}

// HandleWebhook reacts to a verified payment provider event, activating the
// membership tied to the event's customer. Event types this context does
// not act on (e.g. invoice line-item updates) are accepted as no-ops rather
// than errors, since the idempotency layer upstream already recorded
// delivery before this runs.
func (s Service) HandleWebhook(ctx context.Context, event ports.WebhookEvent) error {
	switch event.Type {
	case "checkout.session.completed", "customer.subscription.created", "invoice.paid":
		membership, err := s.Repo.FindByCustomerID(ctx, event.CustomerID)
		if err != nil {
			return err
		}
		membership.Status = domain.StatusActive
		membership.UpdatedAt = s.now()
		if err := s.Repo.Update(ctx, membership); err != nil {
			return err
		}
		s.publish(ctx, domain.UpdatedEvent{
			MembershipID: membership.MembershipID,
			UserID:       membership.UserID,
			Status:       string(membership.Status),
		}, membership.MembershipID)
		return nil
	case "customer.subscription.deleted":
		membership, err := s.Repo.FindByCustomerID(ctx, event.CustomerID)
		if err != nil {
			return err
		}
		membership.Status = domain.StatusCancelled
		membership.UpdatedAt = s.now()
		if err := s.Repo.Update(ctx, membership); err != nil {
			return err
		}
		s.publish(ctx, domain.UpdatedEvent{
			MembershipID: membership.MembershipID,
			UserID:       membership.UserID,
			Status:       string(membership.Status),
		}, membership.MembershipID)
		return nil
	default:
		return nil
	}
}

func (s Service) publish(ctx context.Context, event events.DomainEvent, partitionKey string) {
	if s.Outbox == nil {
		return
	}
	envelope, err := events.ToEnvelope(event, s.now)
	if err != nil {
		resolveLogger(s.Logger).Warn("membership event build failed",
			"event", "membership_event_build_failed",
			"module", "billing/membership-service",
			"error", err.Error(),
		)
		return
	}
	if _, err := s.Outbox.Write(ctx, envelope, partitionKey); err != nil {
		resolveLogger(s.Logger).Warn("membership event write failed",
			"event", "membership_event_write_failed",
			"module", "billing/membership-service",
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
