package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order-related domain errors.
var (
	ErrOrderNotFound           = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrPaymentAlreadyProcessed = &Error{Code: ECONFLICT, Message: "Payment outcome already applied"}
	ErrDuplicateIdempotencyKey = &Error{Code: ECONFLICT, Message: "An order with this idempotency key already exists"}
	ErrInvalidStatusTransition = &Error{Code: EINVALID, Message: "Invalid order status transition"}
)

// OrderStatus tracks fulfillment progress.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus tracks the payment lifecycle, driven by provider webhooks.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
// Fulfillment is forward-only; cancellation is allowed until shipment.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// Order is a persisted customer order. Amounts are in currency units.
type Order struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	TotalAmount      float64
	ShippingAddress  ShippingAddress
	PaymentIntentRef string
	IdempotencyKey   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is a persisted order line. UnitPrice is the catalog price
// captured at order time.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int32
	UnitPrice   float64
	CreatedAt   time.Time
}

// OrderDetail aggregates an order with its items.
type OrderDetail struct {
	Order Order
	Items []OrderItem
}

// PaymentOutcome is the terminal result of a checkout session, as
// reported by the payment provider.
type PaymentOutcome string

const (
	PaymentOutcomeSucceeded PaymentOutcome = "succeeded"
	PaymentOutcomeFailed    PaymentOutcome = "failed"
	PaymentOutcomeExpired   PaymentOutcome = "expired"
)

// OrderService provides business logic for reading and managing orders.
type OrderService interface {
	// GetOrder retrieves a single order with items, scoped to the requesting user.
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetail, error)

	// ListOrders returns the user's orders, newest first.
	ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Order, error)

	// UpdateStatus moves an order through the fulfillment lifecycle.
	// Transitions are validated; admin only.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus) (*Order, error)

	// ApplyPaymentOutcome records the payment result for the order linked
	// to the given checkout session reference. Safe to call more than once
	// for the same session; repeats are no-ops.
	ApplyPaymentOutcome(ctx context.Context, sessionRef string, outcome PaymentOutcome) error
}
