package routes

import (
	"github.com/rs/zerolog"

	"github.com/oakline/oakline/internal/auth"
	"github.com/oakline/oakline/internal/handler/api"
	"github.com/oakline/oakline/internal/handler/webhook"
	"github.com/oakline/oakline/internal/middleware"
)

// Deps contains the handlers and cross-cutting dependencies the route
// table wires together.
type Deps struct {
	CheckoutHandler *api.CheckoutHandler
	OrdersHandler   *api.OrdersHandler
	StripeHandler   *webhook.StripeHandler

	Verifier auth.Verifier
	Metrics  *middleware.Metrics
	Logger   zerolog.Logger

	// AllowedOrigins configures CORS. Use ["*"] for a public API.
	AllowedOrigins []string
}
