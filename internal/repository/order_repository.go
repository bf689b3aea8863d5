package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakline/oakline/internal/domain"
	"github.com/rs/zerolog"
)

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// CreateOrder inserts a new pending order and returns it.
func (r *orderRepository) CreateOrder(ctx context.Context, params CreateOrderParams) (*domain.Order, error) {
	addressJSON, err := json.Marshal(params.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping address: %w", err)
	}

	var key *string
	if params.IdempotencyKey != "" {
		key = &params.IdempotencyKey
	}

	query := `
		INSERT INTO orders (user_id, status, payment_status, total_amount, shipping_address, idempotency_key)
		VALUES ($1, 'pending', 'pending', $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	order := domain.Order{
		UserID:          params.UserID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		TotalAmount:     params.TotalAmount,
		ShippingAddress: params.ShippingAddress,
		IdempotencyKey:  params.IdempotencyKey,
	}

	err = r.pool.QueryRow(ctx, query, params.UserID, params.TotalAmount, addressJSON, key).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, domain.ErrDuplicateIdempotencyKey
		}
		r.logger.Error().
			Err(err).
			Str("user_id", params.UserID.String()).
			Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return &order, nil
}

// CreateOrderItems inserts the order's line items as a batch.
func (r *orderRepository) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// DeleteOrder removes an order; order_items cascade.
func (r *orderRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, status, payment_status, total_amount, shipping_address, payment_intent_ref, idempotency_key, created_at, updated_at`

// scanOrder scans one order row including the jsonb shipping address.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order       domain.Order
		addressJSON []byte
		ref         *string
		key         *string
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.PaymentStatus,
		&order.TotalAmount,
		&addressJSON,
		&ref,
		&key,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	if ref != nil {
		order.PaymentIntentRef = *ref
	}
	if key != nil {
		order.IdempotencyKey = *key
	}
	return &order, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, []domain.OrderItem, error) {
	orderQuery := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		// product_id is NULL when the catalog row was deleted.
		var productID *uuid.UUID
		err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID != nil {
			item.ProductID = *productID
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return order, items, nil
}

// ListByUser returns a user's orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// GetByIdempotencyKey returns the user's order with the given key.
func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND idempotency_key = $2`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, userID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query order by idempotency key: %w", err)
	}
	return order, nil
}

// SetPaymentIntentRef links the checkout session reference to the order.
func (r *orderRepository) SetPaymentIntentRef(ctx context.Context, orderID uuid.UUID, ref string) error {
	query := `UPDATE orders SET payment_intent_ref = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, orderID, ref)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to set payment ref")
		return fmt.Errorf("failed to set payment ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GetByPaymentIntentRef returns the order linked to a session reference.
func (r *orderRepository) GetByPaymentIntentRef(ctx context.Context, ref string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_ref = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query order by payment ref: %w", err)
	}
	return order, nil
}

// ApplyPaymentOutcome updates payment status while the payment is still
// pending. An empty orderStatus keeps the current fulfillment status;
// otherwise it is applied only when the order is still pending, so an
// admin cancellation is never overwritten. A zero row count means the
// outcome was already applied (or the order is unknown) and the call is
// a no-op.
func (r *orderRepository) ApplyPaymentOutcome(ctx context.Context, orderID uuid.UUID, paymentStatus domain.PaymentStatus, orderStatus domain.OrderStatus) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = $2,
		    status = CASE
		        WHEN $3 = '' THEN status
		        WHEN status = 'pending' THEN $3
		        ELSE status
		    END,
		    updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, orderID, paymentStatus, orderStatus)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to apply payment outcome")
		return false, fmt.Errorf("failed to apply payment outcome: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus sets the order's fulfillment status and returns the
// updated order.
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	query := `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + orderColumns

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return order, nil
}
