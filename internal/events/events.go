// Package events publishes order lifecycle notifications to interested
// consumers (fulfillment, email, analytics). Publishing is best-effort:
// failures are logged by callers and never fail the originating request.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oakline/oakline/internal/domain"
)

// Publisher emits order lifecycle events.
type Publisher interface {
	// OrderCreated is emitted after checkout persists a new order.
	OrderCreated(ctx context.Context, event OrderCreatedEvent) error

	// OrderPaymentUpdated is emitted when a payment outcome is applied.
	OrderPaymentUpdated(ctx context.Context, event OrderPaymentUpdatedEvent) error

	// Close releases the underlying connection.
	Close()
}

// OrderCreatedEvent describes a newly created order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	TotalAmount float64   `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	SessionRef  string    `json:"session_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderPaymentUpdatedEvent describes a payment status change.
type OrderPaymentUpdatedEvent struct {
	OrderID       uuid.UUID            `json:"order_id"`
	UserID        uuid.UUID            `json:"user_id"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	OrderStatus   domain.OrderStatus   `json:"order_status"`
	SessionRef    string               `json:"session_ref"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NoopPublisher discards all events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) OrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	return nil
}

func (NoopPublisher) OrderPaymentUpdated(ctx context.Context, event OrderPaymentUpdatedEvent) error {
	return nil
}

func (NoopPublisher) Close() {}
