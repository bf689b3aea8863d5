package domain

import (
	"context"

	"github.com/google/uuid"
)

// Checkout-related domain errors.
var (
	ErrMissingShippingAddress = &Error{Code: EINVALID, Message: "Shipping address is required"}
	ErrMissingSuccessURL      = &Error{Code: EINVALID, Message: "Success URL is required"}
	ErrMissingCancelURL       = &Error{Code: EINVALID, Message: "Cancel URL is required"}
)

// ShippingAddress is the destination captured with an order. All fields
// are required; contents are not postal-verified.
type ShippingAddress struct {
	FullName     string `json:"full_name" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Phone        string `json:"phone,omitempty"`
}

// CheckoutService drives the order-creation flow: resolve the billing
// customer, price and persist the order, and open a hosted payment
// session.
type CheckoutService interface {
	// CreateCheckout runs the full checkout flow for the authenticated
	// user. On failure, partially created state (billing customer
	// mapping excepted) is rolled back via compensating deletes.
	CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error)
}

// CheckoutParams contains everything needed to start a checkout.
type CheckoutParams struct {
	UserID          uuid.UUID
	UserEmail       string
	Cart            Cart
	ShippingAddress ShippingAddress
	SuccessURL      string
	CancelURL       string

	// IdempotencyKey, when set, dedupes repeated submissions per user.
	IdempotencyKey string
}

// CheckoutResult is returned once the hosted payment session exists.
type CheckoutResult struct {
	SessionID  string
	SessionURL string
	OrderID    uuid.UUID
}

// PricedCart is a cart after catalog re-resolution: quantities from the
// client, prices and names from the products table.
type PricedCart struct {
	Items    []PricedItem
	Subtotal float64
}

// PricedItem is one catalog-priced cart line.
type PricedItem struct {
	ProductID   uuid.UUID
	ProductName string
	ImageURL    string
	Quantity    int32
	UnitPrice   float64
}
