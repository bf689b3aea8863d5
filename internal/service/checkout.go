package service

import (
	"context"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oakline/oakline/internal/billing"
	"github.com/oakline/oakline/internal/domain"
	"github.com/oakline/oakline/internal/events"
	"github.com/oakline/oakline/internal/repository"
	"github.com/oakline/oakline/internal/shipping"
	"github.com/oakline/oakline/internal/telemetry"
	"github.com/rs/zerolog"
)

// validate checks struct tags on request payloads.
var validate = validator.New()

// CheckoutConfig tunes the checkout service.
type CheckoutConfig struct {
	// Currency code (ISO 4217 lowercase) used for payment sessions.
	Currency string
}

// checkoutService implements domain.CheckoutService.
//
// Order creation is a saga, not a transaction: each step that succeeds
// before a later step fails is unwound with a compensating delete.
type checkoutService struct {
	orders          repository.OrderRepository
	products        repository.ProductRepository
	customers       CustomerResolver
	billingProvider billing.Provider
	shippingCalc    shipping.Calculator
	publisher       events.Publisher
	currency        string
}

// NewCheckoutService creates a new domain.CheckoutService instance.
func NewCheckoutService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	customers CustomerResolver,
	billingProvider billing.Provider,
	shippingCalc shipping.Calculator,
	publisher events.Publisher,
	cfg CheckoutConfig,
) domain.CheckoutService {
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &checkoutService{
		orders:          orders,
		products:        products,
		customers:       customers,
		billingProvider: billingProvider,
		shippingCalc:    shippingCalc,
		publisher:       publisher,
		currency:        currency,
	}
}

// CreateCheckout runs the full checkout flow:
//
//  1. validate the request
//  2. re-resolve cart prices against the catalog
//  3. ensure a billing customer exists for the user
//  4. persist the order and its items
//  5. open a hosted payment session
//  6. link the session reference back to the order
//
// Steps 4-5 are compensated on failure by deleting the order (items
// cascade). Step 6 failing is logged but does not fail the checkout:
// the session exists and the customer can pay.
func (s *checkoutService) CreateCheckout(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.Inc()
	}

	if params.IdempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, params.UserID, params.IdempotencyKey)
		if err != nil {
			return nil, domain.Internal(err, "checkout.create", "failed to check idempotency key")
		}
		if existing != nil {
			return nil, domain.ErrDuplicateIdempotencyKey
		}
	}

	priced, err := s.priceCart(ctx, params.Cart)
	if err != nil {
		return nil, err
	}

	shippingCost := s.shippingCalc.Cost(priced.Subtotal)
	total := roundAmount(priced.Subtotal + shippingCost)

	customerID, err := s.customers.EnsureCustomer(ctx, params.UserID, params.UserEmail)
	if err != nil {
		s.countFailure("customer")
		return nil, err
	}

	order, err := s.orders.CreateOrder(ctx, repository.CreateOrderParams{
		UserID:          params.UserID,
		TotalAmount:     total,
		ShippingAddress: params.ShippingAddress,
		IdempotencyKey:  params.IdempotencyKey,
	})
	if err != nil {
		s.countFailure("order")
		if domain.IsCode(err, domain.ECONFLICT) {
			return nil, err
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "checkout.create", "failed to create order")
	}

	items := make([]domain.OrderItem, len(priced.Items))
	for i, item := range priced.Items {
		items[i] = domain.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	if err := s.orders.CreateOrderItems(ctx, items); err != nil {
		s.countFailure("items")
		s.compensateOrder(ctx, order.ID)
		return nil, domain.WrapError(err, domain.EINTERNAL, "checkout.create", "failed to create order items")
	}

	session, err := s.billingProvider.CreateCheckoutSession(ctx, billing.CreateCheckoutSessionParams{
		CustomerID: customerID,
		Currency:   s.currency,
		LineItems:  s.sessionLineItems(priced, shippingCost),
		SuccessURL: params.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  params.CancelURL,
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  params.UserID.String(),
		},
		IdempotencyKey: params.IdempotencyKey,
	})
	if err != nil {
		s.countFailure("session")
		s.compensateOrder(ctx, order.ID)
		return nil, domain.WrapError(err, domain.EINTERNAL, "checkout.create", "failed to create payment session")
	}

	// Best-effort: the session carries order_id in its metadata, so a
	// missing link can be reconciled later.
	if err := s.orders.SetPaymentIntentRef(ctx, order.ID, session.ID); err != nil {
		logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("session_id", session.ID).
			Msg("failed to link payment session to order")
	}

	if err := s.publisher.OrderCreated(ctx, events.OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      params.UserID,
		TotalAmount: total,
		ItemCount:   len(items),
		SessionRef:  session.ID,
		CreatedAt:   order.CreatedAt,
	}); err != nil {
		logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish order created event")
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutCompleted.Inc()
		telemetry.Business.OrdersCreated.Inc()
		telemetry.Business.OrderValue.Observe(total)
		telemetry.Business.OrderItemCount.Observe(float64(len(items)))
	}

	logger.Info().
		Str("order_id", order.ID.String()).
		Str("session_id", session.ID).
		Float64("total", total).
		Msg("checkout session created")

	return &domain.CheckoutResult{
		SessionID:  session.ID,
		SessionURL: session.URL,
		OrderID:    order.ID,
	}, nil
}

// validateParams checks the structural validity of a checkout request.
// Validation order matches the endpoint contract: cart first, then
// shipping address, then redirect URLs.
func (s *checkoutService) validateParams(params domain.CheckoutParams) error {
	if err := params.Cart.Validate(); err != nil {
		return err
	}

	if err := validate.Struct(params.ShippingAddress); err != nil {
		var fieldErr error
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				fieldErr = domain.AddFieldError(fieldErr, fe.Field(), "this field is required")
			}
			return fieldErr
		}
		return domain.ErrMissingShippingAddress
	}

	if params.SuccessURL == "" {
		return domain.ErrMissingSuccessURL
	}
	if params.CancelURL == "" {
		return domain.ErrMissingCancelURL
	}
	return nil
}

// priceCart re-resolves every cart line against the catalog. Unknown
// products reject the checkout; client prices are advisory and replaced
// by catalog prices, with a log when they disagree.
func (s *checkoutService) priceCart(ctx context.Context, cart domain.Cart) (*domain.PricedCart, error) {
	logger := zerolog.Ctx(ctx)

	catalog, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, domain.Internal(err, "checkout.price", "failed to load products")
	}

	priced := &domain.PricedCart{
		Items: make([]domain.PricedItem, 0, len(cart)),
	}

	for _, item := range cart {
		product, ok := catalog[item.ProductID]
		if !ok {
			return nil, domain.Errorf(domain.EINVALID, "checkout.price", "unknown product: %s", item.ProductID)
		}

		if item.Price != product.Price {
			logger.Warn().
				Str("product_id", product.ID.String()).
				Float64("client_price", item.Price).
				Float64("catalog_price", product.Price).
				Msg("client price differs from catalog, using catalog price")
		}

		priced.Items = append(priced.Items, domain.PricedItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			ImageURL:    product.FirstImage(),
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
		priced.Subtotal += product.Price * float64(item.Quantity)
	}

	priced.Subtotal = roundAmount(priced.Subtotal)
	return priced, nil
}

// sessionLineItems builds the hosted page lines: one per product plus a
// synthetic shipping line when shipping is charged.
func (s *checkoutService) sessionLineItems(priced *domain.PricedCart, shippingCost float64) []billing.SessionLineItem {
	lines := make([]billing.SessionLineItem, 0, len(priced.Items)+1)
	for _, item := range priced.Items {
		lines = append(lines, billing.SessionLineItem{
			Name:            item.ProductName,
			ImageURL:        item.ImageURL,
			UnitAmountCents: toCents(item.UnitPrice),
			Quantity:        int64(item.Quantity),
		})
	}
	if shippingCost > 0 {
		lines = append(lines, billing.SessionLineItem{
			Name:            "Shipping",
			UnitAmountCents: toCents(shippingCost),
			Quantity:        1,
		})
	}
	return lines
}

// compensateOrder deletes a partially created order; items cascade.
func (s *checkoutService) compensateOrder(ctx context.Context, orderID uuid.UUID) {
	result := "ok"
	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		result = "failed"
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to delete order during checkout compensation")
	}
	if telemetry.Business != nil {
		telemetry.Business.CompensationRuns.WithLabelValues("delete_order", result).Inc()
	}
}

// toCents converts a currency-unit amount to the smallest currency unit.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// roundAmount rounds to two decimal places to keep float accumulation
// out of stored totals.
func roundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func (s *checkoutService) countFailure(stage string) {
	if telemetry.Business != nil {
		telemetry.Business.CheckoutFailed.WithLabelValues(stage).Inc()
	}
}
