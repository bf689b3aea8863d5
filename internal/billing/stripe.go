package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/oakline/oakline/internal/telemetry"
)

func observeStripeLatency(operation string, start time.Time) {
	if telemetry.Business != nil {
		telemetry.Business.StripeAPILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
// The API key is set process-wide, matching the Stripe SDK's global
// client model.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stripe.Key = cfg.APIKey

	return &StripeProvider{config: cfg}, nil
}

// CreateCustomer creates a Stripe customer.
func (s *StripeProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	defer observeStripeLatency("create_customer", time.Now())

	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
	}
	cp.Context = ctx
	if params.Name != "" {
		cp.Name = stripe.String(params.Name)
	}
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}

	c, err := customer.New(cp)
	if err != nil {
		return nil, wrapStripeError(err, "failed to create customer")
	}

	return &Customer{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		CreatedAt: time.Unix(c.Created, 0),
	}, nil
}

// DeleteCustomer deletes a Stripe customer.
func (s *StripeProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	defer observeStripeLatency("delete_customer", time.Now())

	cp := &stripe.CustomerParams{}
	cp.Context = ctx

	if _, err := customer.Del(customerID, cp); err != nil {
		return wrapStripeError(err, "failed to delete customer")
	}
	return nil
}

// CreateCheckoutSession opens a Stripe-hosted checkout session in
// payment mode.
func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	defer observeStripeLatency("create_checkout_session", time.Now())

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(params.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sp := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sp.Context = ctx
	if params.CustomerID != "" {
		sp.Customer = stripe.String(params.CustomerID)
	}
	if params.IdempotencyKey != "" {
		sp.IdempotencyKey = stripe.String(params.IdempotencyKey)
	}
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	sess, err := session.New(sp)
	if err != nil {
		return nil, wrapStripeError(err, "failed to create checkout session")
	}

	return &CheckoutSession{
		ID:        sess.ID,
		URL:       sess.URL,
		Status:    string(sess.Status),
		CreatedAt: time.Unix(sess.Created, 0),
	}, nil
}

// ParseWebhookEvent verifies the Stripe-Signature header and decodes the
// event payload.
func (s *StripeProvider) ParseWebhookEvent(payload []byte, signature string, secret string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidWebhookSignature, err)
	}

	ev := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch ev.Type {
	case EventCheckoutSessionCompleted, EventCheckoutSessionExpired, EventCheckoutSessionAsyncPaymentFailed:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, wrapStripeError(err, "failed to decode checkout session event")
		}
		ev.SessionRef = sess.ID
	}

	return ev, nil
}

// wrapStripeError converts a Stripe SDK error into a StripeError,
// preserving code and request ID for logging.
func wrapStripeError(err error, message string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &StripeError{
			Message:       message + ": " + stripeErr.Msg,
			Code:          string(stripeErr.Code),
			DeclineCode:   string(stripeErr.DeclineCode),
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
	}
	return &StripeError{
		Message:       message,
		OriginalError: err,
	}
}
