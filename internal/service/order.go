package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/oakline/oakline/internal/domain"
	"github.com/oakline/oakline/internal/events"
	"github.com/oakline/oakline/internal/repository"
	"github.com/oakline/oakline/internal/telemetry"
	"github.com/rs/zerolog"
)

// orderService implements domain.OrderService.
type orderService struct {
	orders    repository.OrderRepository
	publisher events.Publisher
}

// NewOrderService creates a new domain.OrderService instance.
func NewOrderService(orders repository.OrderRepository, publisher events.Publisher) domain.OrderService {
	return &orderService{
		orders:    orders,
		publisher: publisher,
	}
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.OrderDetail, error) {
	order, items, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, "order.get", "failed to load order")
	}
	if order == nil || order.UserID != userID {
		// Another user's order reads the same as a missing one.
		return nil, domain.ErrOrderNotFound
	}
	return &domain.OrderDetail{Order: *order, Items: items}, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to list orders")
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "order.update_status", "invalid order status: %s", status)
	}

	order, _, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, "order.update_status", "failed to load order")
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, domain.Errorf(domain.ECONFLICT, "order.update_status",
			"cannot transition order from %s to %s", order.Status, status)
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, domain.Internal(err, "order.update_status", "failed to update order status")
	}
	if updated == nil {
		return nil, domain.ErrOrderNotFound
	}

	zerolog.Ctx(ctx).Info().
		Str("order_id", orderID.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return updated, nil
}

// ApplyPaymentOutcome records a checkout session's terminal payment
// result. Unknown session references and already-settled payments are
// no-ops so webhook retries stay harmless.
func (s *orderService) ApplyPaymentOutcome(ctx context.Context, sessionRef string, outcome domain.PaymentOutcome) error {
	logger := zerolog.Ctx(ctx)

	var paymentStatus domain.PaymentStatus
	var orderStatus domain.OrderStatus
	switch outcome {
	case domain.PaymentOutcomeSucceeded:
		paymentStatus = domain.PaymentStatusPaid
		orderStatus = domain.OrderStatusProcessing
	case domain.PaymentOutcomeFailed, domain.PaymentOutcomeExpired:
		paymentStatus = domain.PaymentStatusFailed
		// Fulfillment status untouched: an expired session must not
		// undo what an admin already did to the order.
	default:
		return domain.Errorf(domain.EINVALID, "order.apply_payment", "unknown payment outcome: %s", outcome)
	}

	order, err := s.orders.GetByPaymentIntentRef(ctx, sessionRef)
	if err != nil {
		return domain.Internal(err, "order.apply_payment", "failed to look up order by session")
	}
	if order == nil {
		logger.Warn().Str("session_ref", sessionRef).Msg("payment outcome for unknown session")
		return nil
	}

	applied, err := s.orders.ApplyPaymentOutcome(ctx, order.ID, paymentStatus, orderStatus)
	if err != nil {
		return domain.Internal(err, "order.apply_payment", "failed to record payment outcome")
	}
	if !applied {
		logger.Info().
			Str("order_id", order.ID.String()).
			Str("session_ref", sessionRef).
			Msg("payment outcome already recorded, skipping")
		return nil
	}

	if telemetry.Business != nil {
		switch outcome {
		case domain.PaymentOutcomeSucceeded:
			telemetry.Business.PaymentSucceeded.Inc()
		case domain.PaymentOutcomeFailed:
			telemetry.Business.PaymentFailed.WithLabelValues("failed").Inc()
		case domain.PaymentOutcomeExpired:
			telemetry.Business.PaymentFailed.WithLabelValues("expired").Inc()
		}
	}

	finalStatus := order.Status
	if orderStatus != "" {
		finalStatus = orderStatus
	}
	if err := s.publisher.OrderPaymentUpdated(ctx, events.OrderPaymentUpdatedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		PaymentStatus: paymentStatus,
		OrderStatus:   finalStatus,
		SessionRef:    sessionRef,
		UpdatedAt:     order.UpdatedAt,
	}); err != nil {
		logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish payment updated event")
	}

	logger.Info().
		Str("order_id", order.ID.String()).
		Str("payment_status", string(paymentStatus)).
		Str("outcome", string(outcome)).
		Msg("payment outcome applied")

	return nil
}
