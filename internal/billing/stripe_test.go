package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCreateCustomer tests customer creation with various scenarios
func TestCreateCustomer(t *testing.T) {
	tests := []struct {
		name      string
		params    CreateCustomerParams
		setupMock func(*MockProvider)
		wantErr   error
	}{
		{
			name: "creates customer with valid params",
			params: CreateCustomerParams{
				Email: "customer@example.com",
				Name:  "Test Customer",
				Metadata: map[string]string{
					"user_id": "user_abc",
				},
			},
			setupMock: func(m *MockProvider) {
				m.CreateCustomerFunc = func(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
					if params.Metadata["user_id"] == "" {
						return nil, errors.New("user_id required in metadata")
					}
					return &Customer{
						ID:    "cus_test_123",
						Email: params.Email,
						Name:  params.Name,
					}, nil
				}
			},
			wantErr: nil,
		},
		{
			name: "default mock assigns an ID",
			params: CreateCustomerParams{
				Email: "shopper@example.com",
			},
			setupMock: func(m *MockProvider) {},
			wantErr:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider()
			tt.setupMock(mock)

			c, err := mock.CreateCustomer(context.Background(), tt.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, c)
			assert.NotEmpty(t, c.ID)
			assert.Equal(t, tt.params.Email, c.Email)
			assert.Contains(t, mock.CallLog[0], "CreateCustomer")
		})
	}
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("deletes existing customer", func(t *testing.T) {
		mock := NewMockProvider()
		c, err := mock.CreateCustomer(context.Background(), CreateCustomerParams{Email: "a@example.com"})
		require.NoError(t, err)

		err = mock.DeleteCustomer(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Contains(t, mock.DeletedCustomers, c.ID)
		assert.Empty(t, mock.Customers)
	})

	t.Run("unknown customer returns ErrCustomerNotFound", func(t *testing.T) {
		mock := NewMockProvider()
		err := mock.DeleteCustomer(context.Background(), "cus_missing")
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Run("returns session with redirect URL", func(t *testing.T) {
		mock := NewMockProvider()

		sess, err := mock.CreateCheckoutSession(context.Background(), CreateCheckoutSessionParams{
			CustomerID: "cus_test_123",
			Currency:   "usd",
			LineItems: []SessionLineItem{
				{Name: "Widget", UnitAmountCents: 2500, Quantity: 2},
				{Name: "Shipping", UnitAmountCents: 5000, Quantity: 1},
			},
			SuccessURL: "https://shop.example.com/success",
			CancelURL:  "https://shop.example.com/cancel",
			Metadata: map[string]string{
				"order_id": "order_123",
				"user_id":  "user_abc",
			},
		})

		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.NotEmpty(t, sess.ID)
		assert.NotEmpty(t, sess.URL)
		assert.Equal(t, "open", sess.Status)
	})

	t.Run("surfaces provider errors", func(t *testing.T) {
		mock := NewMockProvider()
		mock.CreateCheckoutSessionFunc = func(ctx context.Context, params CreateCheckoutSessionParams) (*CheckoutSession, error) {
			return nil, &StripeError{Message: "amount too small", Code: "amount_too_small"}
		}

		_, err := mock.CreateCheckoutSession(context.Background(), CreateCheckoutSessionParams{})
		require.Error(t, err)

		var stripeErr *StripeError
		require.True(t, errors.As(err, &stripeErr))
		assert.Equal(t, "amount_too_small", stripeErr.Code)
	})
}

func TestParseWebhookEvent(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		mock := NewMockProvider()
		mock.ParseWebhookEventFunc = func(payload []byte, signature string, secret string) (*WebhookEvent, error) {
			return nil, ErrInvalidWebhookSignature
		}

		_, err := mock.ParseWebhookEvent([]byte("{}"), "bad-sig", "whsec_test")
		assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
	})

	t.Run("default mock reports completed session", func(t *testing.T) {
		mock := NewMockProvider()
		ev, err := mock.ParseWebhookEvent([]byte("{}"), "sig", "whsec_test")
		require.NoError(t, err)
		assert.Equal(t, EventCheckoutSessionCompleted, ev.Type)
		assert.NotEmpty(t, ev.SessionRef)
	})
}

func TestStripeConfig(t *testing.T) {
	t.Run("validates required fields", func(t *testing.T) {
		cfg := StripeConfig{}
		assert.Error(t, cfg.Validate())

		cfg.APIKey = "sk_test_abc"
		assert.Error(t, cfg.Validate())

		cfg.WebhookSecret = "whsec_abc"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("detects test mode", func(t *testing.T) {
		cfg := StripeConfig{APIKey: "sk_test_abc123"}
		assert.True(t, cfg.IsTestMode())

		cfg.APIKey = "sk_live_abc123"
		assert.False(t, cfg.IsTestMode())
	})
}

func TestStripeError(t *testing.T) {
	t.Run("formats with code", func(t *testing.T) {
		err := &StripeError{Message: "card declined", Code: "card_declined"}
		assert.Equal(t, "stripe: card declined (code: card_declined)", err.Error())
		assert.True(t, err.IsDeclined())
	})

	t.Run("unwraps original error", func(t *testing.T) {
		underlying := errors.New("network down")
		err := &StripeError{Message: "request failed", OriginalError: underlying}
		assert.ErrorIs(t, err, underlying)
	})

	t.Run("identifies transient errors", func(t *testing.T) {
		err := &StripeError{Code: "rate_limit"}
		assert.True(t, err.IsTemporary())
	})
}
