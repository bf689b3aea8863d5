// Package webhook receives payment provider callbacks.
package webhook

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/oakline/oakline/internal/billing"
	"github.com/oakline/oakline/internal/domain"
	"github.com/oakline/oakline/internal/handler"
	"github.com/oakline/oakline/internal/telemetry"
)

// maxPayloadBytes bounds webhook bodies. Stripe events are small.
const maxPayloadBytes = 64 * 1024

// StripeHandler handles Stripe webhook events.
type StripeHandler struct {
	provider     billing.Provider
	orderService domain.OrderService
	secret       string
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(provider billing.Provider, orderService domain.OrderService, webhookSecret string) *StripeHandler {
	return &StripeHandler{
		provider:     provider,
		orderService: orderService,
		secret:       webhookSecret,
	}
}

// HandleWebhook processes an incoming Stripe event.
//
// Once the signature checks out, the response is always 200: Stripe
// retries non-2xx deliveries, and a retry cannot fix a processing
// failure the handler already logged. ApplyPaymentOutcome is idempotent
// so redelivery of a processed event is harmless.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := zerolog.Ctx(r.Context())

	if r.Method != http.MethodPost {
		handler.MethodNotAllowedResponse(w, r, http.MethodPost)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "webhook.stripe", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "webhook.stripe", "Missing signature"))
		return
	}

	event, err := h.provider.ParseWebhookEvent(payload, signature, h.secret)
	if err != nil {
		logger.Warn().Err(err).Msg("webhook signature verification failed")
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "webhook.stripe", "Invalid signature"))
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(event.Type).Inc()
		defer func() {
			telemetry.Business.WebhookLatency.WithLabelValues(event.Type).Observe(time.Since(start).Seconds())
		}()
	}

	logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("stripe webhook received")

	var outcome domain.PaymentOutcome
	switch event.Type {
	case billing.EventCheckoutSessionCompleted:
		outcome = domain.PaymentOutcomeSucceeded
	case billing.EventCheckoutSessionAsyncPaymentFailed:
		outcome = domain.PaymentOutcomeFailed
	case billing.EventCheckoutSessionExpired:
		outcome = domain.PaymentOutcomeExpired
	default:
		// Unhandled event types are acknowledged so Stripe stops
		// resending them.
		w.WriteHeader(http.StatusOK)
		return
	}

	if event.SessionRef == "" {
		logger.Warn().Str("event_id", event.ID).Msg("webhook event has no session reference")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.orderService.ApplyPaymentOutcome(r.Context(), event.SessionRef, outcome); err != nil {
		logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("session_ref", event.SessionRef).
			Msg("failed to apply payment outcome")
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(event.Type).Inc()
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	if telemetry.Business != nil {
		telemetry.Business.WebhookProcessed.WithLabelValues(event.Type).Inc()
	}
	w.WriteHeader(http.StatusOK)
}
