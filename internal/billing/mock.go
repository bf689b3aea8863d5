package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful payment flows without calling the Stripe API.
type MockProvider struct {
	// CreateCustomerFunc allows customizing customer creation behavior
	CreateCustomerFunc func(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// DeleteCustomerFunc allows customizing customer deletion behavior
	DeleteCustomerFunc func(ctx context.Context, customerID string) error

	// CreateCheckoutSessionFunc allows customizing session creation behavior
	CreateCheckoutSessionFunc func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error)

	// ParseWebhookEventFunc allows customizing webhook verification behavior
	ParseWebhookEventFunc func(payload []byte, signature string, secret string) (*WebhookEvent, error)

	// Customers stores created customers for retrieval
	Customers map[string]*Customer

	// Sessions stores created checkout sessions, keyed by session ID
	Sessions map[string]*CheckoutSession

	// DeletedCustomers records IDs passed to DeleteCustomer
	DeletedCustomers []string

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Customers: make(map[string]*Customer),
		Sessions:  make(map[string]*CheckoutSession),
		CallLog:   []string{},
	}
}

// CreateCustomer creates a mock customer.
func (m *MockProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCustomer(%s)", params.Email))

	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}

	c := &Customer{
		ID:        "cus_" + uuid.New().String()[:8],
		Email:     params.Email,
		Name:      params.Name,
		CreatedAt: time.Now(),
	}

	m.Customers[c.ID] = c
	return c, nil
}

// DeleteCustomer deletes a mock customer.
func (m *MockProvider) DeleteCustomer(ctx context.Context, customerID string) error {
	m.CallLog = append(m.CallLog, fmt.Sprintf("DeleteCustomer(%s)", customerID))
	m.DeletedCustomers = append(m.DeletedCustomers, customerID)

	if m.DeleteCustomerFunc != nil {
		return m.DeleteCustomerFunc(ctx, customerID)
	}

	if _, exists := m.Customers[customerID]; !exists {
		return ErrCustomerNotFound
	}
	delete(m.Customers, customerID)
	return nil
}

// CreateCheckoutSession creates a mock checkout session.
func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCheckoutSession(%s, %d items)", params.CustomerID, len(params.LineItems)))

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}

	sess := &CheckoutSession{
		ID:        "cs_test_" + uuid.New().String()[:8],
		URL:       "https://checkout.stripe.com/c/pay/cs_test_" + uuid.New().String()[:8],
		Status:    "open",
		CreatedAt: time.Now(),
	}

	m.Sessions[sess.ID] = sess
	return sess, nil
}

// ParseWebhookEvent verifies a mock webhook request.
func (m *MockProvider) ParseWebhookEvent(payload []byte, signature string, secret string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "ParseWebhookEvent")

	if m.ParseWebhookEventFunc != nil {
		return m.ParseWebhookEventFunc(payload, signature, secret)
	}

	// Default mock behavior: accept any signature, report a completed session.
	return &WebhookEvent{
		ID:         "evt_" + uuid.New().String()[:8],
		Type:       EventCheckoutSessionCompleted,
		SessionRef: "cs_test_" + uuid.New().String()[:8],
	}, nil
}
