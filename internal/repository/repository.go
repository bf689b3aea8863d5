// Package repository provides PostgreSQL data access for the storefront.
//
// Order creation deliberately avoids cross-statement transactions: the
// checkout flow interleaves database writes with payment provider calls,
// so failures are unwound with compensating deletes instead of rollback.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oakline/oakline/internal/domain"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID.
	// Returns nil, nil when the product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Products that
	// do not exist are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
}

// CreateOrderParams contains the fields written when an order row is
// first inserted.
type CreateOrderParams struct {
	UserID          uuid.UUID
	TotalAmount     float64
	ShippingAddress domain.ShippingAddress

	// IdempotencyKey, when non-empty, is stored with a per-user unique
	// constraint. A duplicate insert returns domain.ErrDuplicateIdempotencyKey.
	IdempotencyKey string
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// CreateOrder inserts a new pending order and returns it.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*domain.Order, error)

	// CreateOrderItems inserts the order's line items.
	CreateOrderItems(ctx context.Context, items []domain.OrderItem) error

	// DeleteOrder removes an order and, via cascade, its items.
	// Used as a compensating action when checkout fails midway.
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves an order by its ID along with its items.
	// Returns nil, nil, nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, []domain.OrderItem, error)

	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Order, error)

	// GetByIdempotencyKey returns the user's order created with the given
	// key, or nil, nil when none exists.
	GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error)

	// SetPaymentIntentRef links the checkout session reference to the order.
	SetPaymentIntentRef(ctx context.Context, orderID uuid.UUID, ref string) error

	// GetByPaymentIntentRef returns the order linked to a checkout session
	// reference, or nil, nil when none exists.
	GetByPaymentIntentRef(ctx context.Context, ref string) (*domain.Order, error)

	// ApplyPaymentOutcome updates payment status, but only when the
	// payment is still pending. An empty orderStatus keeps the current
	// fulfillment status. Returns true when a row was updated.
	ApplyPaymentOutcome(ctx context.Context, orderID uuid.UUID, paymentStatus domain.PaymentStatus, orderStatus domain.OrderStatus) (bool, error)

	// UpdateStatus sets the order's fulfillment status.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

// CustomerRepository defines the interface for billing customer mappings.
type CustomerRepository interface {
	// GetActiveByUser returns the user's non-deleted mapping, or nil, nil
	// when none exists.
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.BillingCustomer, error)

	// Create inserts a new mapping for the user.
	Create(ctx context.Context, userID uuid.UUID, provider, providerCustomerID string) (*domain.BillingCustomer, error)
}

// UserRepository defines the interface for account and token lookups.
type UserRepository interface {
	// GetUserByTokenDigest returns the account owning the token digest
	// and the token's expiry. Returns nil, zero, nil when no token matches.
	GetUserByTokenDigest(ctx context.Context, digest string) (*domain.Account, time.Time, error)
}
