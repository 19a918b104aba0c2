// Package stripe adapts the Stripe API to ports.PaymentProvider. Stripe is
// the only payment SDK retrieved anywhere in the example pack (found in the
// OFFGRIDFLOW manifest's go.mod), so it is what this context's single
// external payment collaborator is grounded on.
package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/sub"
	"github.com/stripe/stripe-go/v82/webhook"

	"wayfinder/contexts/billing/membership-service/domain"
	"wayfinder/contexts/billing/membership-service/ports"
)

// priceIDs maps a Tier to the Stripe Price object billed for it. Populated
// from configuration at construction time since price IDs are environment-
// specific (test vs live mode), not something this package can hardcode.
type Provider struct {
	PriceIDs      map[domain.Tier]string
	WebhookSecret string
}

func New(secretKey string, priceIDs map[domain.Tier]string, webhookSecret string) *Provider {
	stripe.Key = secretKey
	return &Provider{PriceIDs: priceIDs, WebhookSecret: webhookSecret}
}

func (p *Provider) CreateCustomer(ctx context.Context, input ports.CreateCustomerInput) (ports.Customer, error) {
	params := &stripe.CustomerParams{Email: stripe.String(input.Email)}
	params.AddMetadata("user_id", input.UserID)
	params.Context = ctx

	c, err := customer.New(params)
	if err != nil {
		return ports.Customer{}, fmt.Errorf("stripe: create customer: %w", err)
	}
	return ports.Customer{ID: c.ID, Email: c.Email}, nil
}

func (p *Provider) CreateSubscription(ctx context.Context, customerID string, tier domain.Tier) (ports.Subscription, error) {
	priceID, ok := p.PriceIDs[tier]
	if !ok {
		return ports.Subscription{}, fmt.Errorf("stripe: no price configured for tier %q", tier)
	}
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items:    []*stripe.SubscriptionItemsParams{{Price: stripe.String(priceID)}},
	}
	params.Context = ctx

	s, err := sub.New(params)
	if err != nil {
		return ports.Subscription{}, fmt.Errorf("stripe: create subscription: %w", err)
	}
	return ports.Subscription{ID: s.ID, Status: string(s.Status)}, nil
}

func (p *Provider) GetSubscription(ctx context.Context, subscriptionID string) (ports.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	s, err := sub.Get(subscriptionID, params)
	if err != nil {
		return ports.Subscription{}, fmt.Errorf("stripe: get subscription: %w", err)
	}
	return ports.Subscription{ID: s.ID, Status: string(s.Status)}, nil
}

func (p *Provider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := sub.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe: cancel subscription: %w", err)
	}
	return nil
}

func (p *Provider) UpdateSubscription(ctx context.Context, subscriptionID string, tier domain.Tier) (ports.Subscription, error) {
	priceID, ok := p.PriceIDs[tier]
	if !ok {
		return ports.Subscription{}, fmt.Errorf("stripe: no price configured for tier %q", tier)
	}
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{Price: stripe.String(priceID)}},
	}
	params.Context = ctx
	s, err := sub.Update(subscriptionID, params)
	if err != nil {
		return ports.Subscription{}, fmt.Errorf("stripe: update subscription: %w", err)
	}
	return ports.Subscription{ID: s.ID, Status: string(s.Status)}, nil
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, input ports.CreateCheckoutInput) (ports.CheckoutSession, error) {
	priceID, ok := p.PriceIDs[input.Tier]
	if !ok {
		return ports.CheckoutSession{}, fmt.Errorf("stripe: no price configured for tier %q", input.Tier)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	if input.CustomerID != "" {
		params.Customer = stripe.String(input.CustomerID)
	} else {
		params.CustomerEmail = stripe.String(input.Email)
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return ports.CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return ports.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *Provider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (ports.PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	s, err := portalsession.New(params)
	if err != nil {
		return ports.PortalSession{}, fmt.Errorf("stripe: create portal session: %w", err)
	}
	return ports.PortalSession{URL: s.URL}, nil
}

// VerifyWebhook verifies the Stripe-Signature header and decodes the event's
// subscription/customer identifiers this context needs. Unrecognized event
// types are returned with an empty Type-specific payload rather than an
// error — the caller ignores events it does not subscribe to.
func (p *Provider) VerifyWebhook(ctx context.Context, payload []byte, signature string) (ports.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.WebhookSecret)
	if err != nil {
		return ports.WebhookEvent{}, fmt.Errorf("stripe: verify webhook: %w", err)
	}

	out := ports.WebhookEvent{Type: string(event.Type)}
	var subObj stripe.Subscription
	if err := subObj.UnmarshalJSON(event.Data.Raw); err == nil {
		out.SubscriptionID = subObj.ID
		if subObj.Customer != nil {
			out.CustomerID = subObj.Customer.ID
		}
	}
	return out, nil
}
