package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	membershipports "wayfinder/contexts/billing/membership-service/ports"
	webhookapp "wayfinder/internal/core/resilience/webhookidempotency/application"
)

func webhookResultLabel(result webhookapp.Result) string {
	if result == webhookapp.AlreadyProcessed {
		return "already_processed"
	}
	return "processed"
}

// paymentSignatureVerifier adapts ports.PaymentProvider.VerifyWebhook into
// the idempotency layer's narrower SignatureVerifier, which only needs a
// yes/no on the signature — the decoded event is re-read by
// paymentEventProcessor once the idempotency store has recorded delivery.
type paymentSignatureVerifier struct {
	Payment membershipports.PaymentProvider
}

func (v paymentSignatureVerifier) Verify(payload []byte, signature string) error {
	_, err := v.Payment.VerifyWebhook(context.Background(), payload, signature)
	return err
}

// NewPaymentSignatureVerifier builds the SignatureVerifier the composition
// root wires into webhookidempotency.Handler.
func NewPaymentSignatureVerifier(payment membershipports.PaymentProvider) interface {
	Verify(payload []byte, signature string) error
} {
	return paymentSignatureVerifier{Payment: payment}
}

// paymentEventProcessor applies a verified payment event's side effect. The
// payload was already verified by paymentSignatureVerifier before the
// idempotency handler reaches this, so re-decoding here is safe without
// re-checking the signature.
type paymentEventProcessor struct {
	Payment    membershipports.PaymentProvider
	Membership membershipHandler
}

// membershipHandler is the narrow slice of membershipapp.Service this
// processor needs.
type membershipHandler interface {
	HandleWebhook(ctx context.Context, event membershipports.WebhookEvent) error
}

func (p paymentEventProcessor) Process(ctx context.Context, _ string, payload []byte) error {
	event, err := p.Payment.VerifyWebhook(ctx, payload, "")
	if err != nil {
		return err
	}
	return p.Membership.HandleWebhook(ctx, event)
}

// NewPaymentEventProcessor builds the Processor the composition root wires
// into webhookidempotency.Handler, binding the payment provider's decoded
// event to membership-service's webhook reaction.
func NewPaymentEventProcessor(payment membershipports.PaymentProvider, membership membershipHandler) interface {
	Process(ctx context.Context, eventID string, payload []byte) error
} {
	return paymentEventProcessor{Payment: payment, Membership: membership}
}

// webhookEnvelope reads only the provider-assigned event ID out of the raw
// payload, needed by the idempotency store's key before signature
// verification runs.
type webhookEnvelope struct {
	ID string `json:"id"`
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	defer r.Body.Close()

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "payload missing event id")
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	result, err := s.Webhooks.Deliver(r.Context(), envelope.ID, signature, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "webhook_rejected", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": webhookResultLabel(result)})
}
