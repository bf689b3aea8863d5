package billing

import (
	"context"
	"time"
)

// Provider defines the interface for payment processing.
// Implementations can use Stripe, PayPal, Square, etc.
type Provider interface {
	// CreateCustomer creates a customer record in the billing provider.
	// Called the first time a user checks out; the returned ID is
	// persisted locally so later checkouts reuse it.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// DeleteCustomer removes a customer record from the billing provider.
	// Used as a compensating action when the local mapping cannot be saved.
	DeleteCustomer(ctx context.Context, customerID string) error

	// CreateCheckoutSession opens a hosted payment page for the given
	// line items and returns the session ID and redirect URL.
	CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// ParseWebhookEvent verifies a webhook request's signature and decodes
	// it into a provider-neutral event. Returns ErrInvalidWebhookSignature
	// when verification fails.
	ParseWebhookEvent(payload []byte, signature string, secret string) (*WebhookEvent, error)
}

// CreateCustomerParams contains parameters for creating a customer.
type CreateCustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// Customer represents a billing customer.
type Customer struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// SessionLineItem is one priced line on the hosted payment page.
// UnitAmountCents is in the smallest currency unit.
type SessionLineItem struct {
	Name            string
	ImageURL        string
	UnitAmountCents int64
	Quantity        int64
}

// CreateCheckoutSessionParams contains parameters for opening a hosted
// checkout session.
type CreateCheckoutSessionParams struct {
	// CustomerID links the session to an existing billing customer.
	CustomerID string

	// Currency code (ISO 4217 lowercase) - e.g., "usd"
	Currency string

	LineItems []SessionLineItem

	// SuccessURL and CancelURL are the redirect targets after payment.
	SuccessURL string
	CancelURL  string

	// Metadata for filtering and reconciliation (include order_id, user_id).
	Metadata map[string]string

	// IdempotencyKey prevents duplicate sessions on retried requests.
	IdempotencyKey string
}

// CheckoutSession represents a hosted payment session.
type CheckoutSession struct {
	// ID is the provider's session ID (cs_...)
	ID string

	// URL is where the customer completes payment.
	URL string

	Status    string
	CreatedAt time.Time
}

// Webhook event types the order pipeline reacts to.
const (
	EventCheckoutSessionCompleted          = "checkout.session.completed"
	EventCheckoutSessionExpired            = "checkout.session.expired"
	EventCheckoutSessionAsyncPaymentFailed = "checkout.session.async_payment_failed"
)

// WebhookEvent is a verified, provider-neutral webhook notification.
type WebhookEvent struct {
	ID   string
	Type string

	// SessionRef is the checkout session ID for checkout.session.* events.
	SessionRef string
}
