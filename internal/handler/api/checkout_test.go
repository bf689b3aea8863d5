package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/oakline/internal/domain"
)

type fakeCheckoutService struct {
	result *domain.CheckoutResult
	err    error
	params domain.CheckoutParams
	calls  int
}

func (f *fakeCheckoutService) CreateCheckout(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutResult, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func authedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	return req.WithContext(domain.NewContextWithUser(req.Context(), user))
}

func checkoutBody(productID uuid.UUID) string {
	return fmt.Sprintf(`{
		"cart": [{"product": {"id": %q, "name": "House Blend", "price": 18.00, "images": ["https://cdn.example.com/blend.jpg"]}, "quantity": 2}],
		"shipping_address": {
			"full_name": "Ada Lovelace",
			"address_line1": "1 Analytical Way",
			"city": "Portland",
			"state": "OR",
			"postal_code": "97201",
			"country": "US"
		},
		"success_url": "https://shop.example.com/success",
		"cancel_url": "https://shop.example.com/cancel",
		"idempotency_key": "key-1"
	}`, productID)
}

func TestHandleCheckout_Success(t *testing.T) {
	orderID := uuid.New()
	productID := uuid.New()
	svc := &fakeCheckoutService{result: &domain.CheckoutResult{
		SessionID:  "cs_test_abc",
		SessionURL: "https://checkout.stripe.com/pay/cs_test_abc",
		OrderID:    orderID,
	}}
	h := NewCheckoutHandler(svc)

	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, authedRequest(t, checkoutBody(productID)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"url"`
		OrderID   string `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "cs_test_abc", resp.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_abc", resp.URL)
	assert.Equal(t, orderID.String(), resp.OrderID)

	// Identity comes from the authenticated context, not the body.
	assert.Equal(t, "ada@example.com", svc.params.UserEmail)
	assert.Equal(t, "key-1", svc.params.IdempotencyKey)

	// The nested product object flattens into a cart line; the id and
	// quantity carry through, the client price rides along for the
	// mismatch log but is re-resolved downstream.
	require.Len(t, svc.params.Cart, 1)
	assert.Equal(t, productID, svc.params.Cart[0].ProductID)
	assert.Equal(t, int32(2), svc.params.Cart[0].Quantity)
	assert.Equal(t, 18.00, svc.params.Cart[0].Price)
}

func TestHandleCheckout_Unauthenticated(t *testing.T) {
	svc := &fakeCheckoutService{}
	h := NewCheckoutHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(checkoutBody(uuid.New())))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestHandleCheckout_MalformedBody(t *testing.T) {
	svc := &fakeCheckoutService{}
	h := NewCheckoutHandler(svc)

	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, authedRequest(t, `{"cart": [`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestHandleCheckout_ValidationErrorListsFields(t *testing.T) {
	verr := domain.NewValidationError("checkout.create", "postal_code", "this field is required")
	svc := &fakeCheckoutService{err: verr}
	h := NewCheckoutHandler(svc)

	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, authedRequest(t, checkoutBody(uuid.New())))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.EINVALID, resp.Error.Code)
	assert.Equal(t, "this field is required", resp.Error.Fields["postal_code"])
}

func TestHandleCheckout_DuplicateIdempotencyKey(t *testing.T) {
	svc := &fakeCheckoutService{err: domain.Errorf(domain.ECONFLICT, "checkout.create", "An order for this idempotency key already exists")}
	h := NewCheckoutHandler(svc)

	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, authedRequest(t, checkoutBody(uuid.New())))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCheckout_ProviderFailureIsOpaque(t *testing.T) {
	svc := &fakeCheckoutService{err: domain.WrapError(assert.AnError, domain.EINTERNAL, "checkout.create", "failed to create payment session")}
	h := NewCheckoutHandler(svc)

	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, authedRequest(t, checkoutBody(uuid.New())))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.EINTERNAL, resp.Error.Code)
	assert.Equal(t, "An internal error occurred. Please try again later.", resp.Error.Message)
}

func TestHandleCheckout_AuthCheckedBeforeBody(t *testing.T) {
	svc := &fakeCheckoutService{}
	h := NewCheckoutHandler(svc)

	// No token and no cart: the missing token wins.
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestHandleCheckout_Preflight(t *testing.T) {
	h := NewCheckoutHandler(&fakeCheckoutService{})

	req := httptest.NewRequest(http.MethodOptions, "/checkout", nil)
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleCheckout_MethodNotAllowed(t *testing.T) {
	h := NewCheckoutHandler(&fakeCheckoutService{})

	req := httptest.NewRequest(http.MethodGet, "/checkout", nil)
	rec := httptest.NewRecorder()
	h.HandleCheckout(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
}
