package domain

import (
	"github.com/google/uuid"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrEmptyCart       = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrUnknownProduct  = &Error{Code: EINVALID, Message: "Cart references an unknown product"}
)

// CartItem represents one line of a client-submitted cart.
// Price is the client's view of the unit price in currency units; it is
// advisory only and re-resolved against the catalog before an order is
// written.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	Price     float64   `json:"price"`
}

// Cart is the list of items submitted at checkout.
type Cart []CartItem

// Validate checks structural validity: non-empty, positive quantities,
// non-negative prices.
func (c Cart) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCart
	}
	for i, item := range c {
		if item.ProductID == uuid.Nil {
			return Errorf(EINVALID, "cart.validate", "item %d: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return Errorf(EINVALID, "cart.validate", "item %d: quantity must be greater than 0", i)
		}
		if item.Price < 0 {
			return Errorf(EINVALID, "cart.validate", "item %d: price cannot be negative", i)
		}
	}
	return nil
}

// ProductIDs returns the distinct product IDs referenced by the cart,
// in first-seen order.
func (c Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c))
	ids := make([]uuid.UUID, 0, len(c))
	for _, item := range c {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
