// Package ports declares the capability sets the membership service depends
// on: PaymentProvider, UsageTracker. This context never touches a
// provider-specific payment wire format — every payment concern is behind
// PaymentProvider, a narrow capability set.
package ports

import (
	"context"
	"time"

	"wayfinder/contexts/billing/membership-service/domain"
	"wayfinder/internal/shared/events"
)

type Repository interface {
	Save(ctx context.Context, membership domain.Membership) error
	FindByUserID(ctx context.Context, userID string) (domain.Membership, error)
	FindByCustomerID(ctx context.Context, customerID string) (domain.Membership, error)
	Update(ctx context.Context, membership domain.Membership) error
}

// Customer is the payment provider's customer record, addressed opaquely —
// this context never inspects provider-specific fields beyond ID.
type Customer struct {
	ID    string
	Email string
}

type CreateCustomerInput struct {
	UserID string
	Email  string
}

// CheckoutSession is the payment provider's hosted checkout redirect.
type CheckoutSession struct {
	ID  string
	URL string
}

type CreateCheckoutInput struct {
	UserID     string
	Email      string
	Tier       domain.Tier
	SuccessURL string
	CancelURL  string
	CustomerID string
}

// PortalSession is the payment provider's hosted billing-management portal.
type PortalSession struct {
	URL string
}

// Subscription is the payment provider's subscription record.
type Subscription struct {
	ID     string
	Status string
}

// WebhookEvent is the payment provider's verified, decoded webhook payload.
type WebhookEvent struct {
	Type           string
	CustomerID     string
	SubscriptionID string
}

// PaymentProvider is the full capability set this names: "create_customer,
// create/get/cancel/update_subscription, create_checkout_session,
// create_portal_session, verify_webhook".
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (Customer, error)
	CreateSubscription(ctx context.Context, customerID string, tier domain.Tier) (Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	UpdateSubscription(ctx context.Context, subscriptionID string, tier domain.Tier) (Subscription, error)
	CreateCheckoutSession(ctx context.Context, input CreateCheckoutInput) (CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (PortalSession, error)
	VerifyWebhook(ctx context.Context, payload []byte, signature string) (WebhookEvent, error)
}

// LimitStatus mirrors resilience/usagetracker/domain.LimitStatus's three
// values. Declared locally (not imported) for the same one-way-dependency
// reason every narrow port interface in this repo is declared locally;
// the composition root adapts the real usagetracker.Tracker's
// domain.LimitStatus into this type when wiring the dependency in.
type LimitStatus int

const (
	LimitUnderWarning LimitStatus = iota
	LimitWarning
	LimitBlocked
)

// UsageTracker is the narrow slice of resilience/usagetracker.ports.Tracker
// this context needs — defined locally so membership-service never imports
// internal/core/resilience, the one-way-dependency idiom used throughout
// this repo's core packages.
type UsageTracker interface {
	CheckDailyLimit(ctx context.Context, userID string, limitCents int64) (LimitStatus, error)
}

type Clock func() time.Time

// OutboxWriter is the narrow outbox slice this context depends on.
type OutboxWriter interface {
	Write(ctx context.Context, envelope events.Envelope, partitionKey string) (string, error)
}
