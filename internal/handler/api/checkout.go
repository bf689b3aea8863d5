// Package api contains the storefront JSON API handlers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/oakline/oakline/internal/domain"
	"github.com/oakline/oakline/internal/handler"
)

// CheckoutHandler serves the checkout endpoint.
type CheckoutHandler struct {
	checkout domain.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout domain.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// cartProduct is the client's snapshot of a catalog product. Only the
// id is trusted; name, price, and images are re-resolved from the
// catalog before the order is written.
type cartProduct struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Price  float64   `json:"price"`
	Images []string  `json:"images,omitempty"`
}

// cartLine is one entry of the submitted cart.
type cartLine struct {
	Product  cartProduct `json:"product"`
	Quantity int32       `json:"quantity"`
}

// checkoutRequest is the POST /checkout body.
type checkoutRequest struct {
	Cart            []cartLine             `json:"cart"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	SuccessURL      string                 `json:"success_url"`
	CancelURL       string                 `json:"cancel_url"`
	IdempotencyKey  string                 `json:"idempotency_key,omitempty"`
}

func (req checkoutRequest) toCart() domain.Cart {
	cart := make(domain.Cart, 0, len(req.Cart))
	for _, line := range req.Cart {
		cart = append(cart, domain.CartItem{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		})
	}
	return cart
}

// checkoutResponse is returned once the payment session exists.
type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
	OrderID   string `json:"orderId"`
}

// HandleCheckout owns method dispatch for /checkout. OPTIONS preflight
// is answered by the CORS middleware before reaching here; anything but
// POST gets 405.
func (h *CheckoutHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		h.createCheckout(w, r)
	default:
		handler.MethodNotAllowedResponse(w, r, http.MethodPost, http.MethodOptions)
	}
}

func (h *CheckoutHandler) createCheckout(w http.ResponseWriter, r *http.Request) {
	user := domain.UserFromContext(r.Context())
	if user == nil {
		handler.UnauthorizedResponse(w, r)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "checkout.create", "Invalid request body"))
		return
	}

	result, err := h.checkout.CreateCheckout(r.Context(), domain.CheckoutParams{
		UserID:          user.ID,
		UserEmail:       user.Email,
		Cart:            req.toCart(),
		ShippingAddress: req.ShippingAddress,
		SuccessURL:      req.SuccessURL,
		CancelURL:       req.CancelURL,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		if domain.IsValidationError(err) {
			handler.ValidationErrorResponse(w, r, err)
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		SessionID: result.SessionID,
		URL:       result.SessionURL,
		OrderID:   result.OrderID.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
