// Package routes assembles the HTTP route table and middleware chain.
package routes

import (
	"net/http"

	"github.com/oakline/oakline/internal/middleware"
	"github.com/oakline/oakline/internal/router"
)

// New builds the application router with the global middleware chain
// and all route registrations.
func New(deps Deps) *router.Router {
	r := router.New(
		middleware.RequestID,
		router.Recovery(deps.Logger),
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig()),
		deps.Metrics.Middleware,
		router.CORS(deps.AllowedOrigins),
		middleware.MaxBodySize(),
		middleware.WithUser(deps.Verifier),
		middleware.WithRequestLogger(deps.Logger),
		router.Logger(deps.Logger),
	)

	r.Get("/health", handleHealth)
	r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Checkout registers without a method so the handler can answer
	// preflight and wrong-method requests itself. It also enforces
	// authentication, since RequireAuth would reject OPTIONS.
	r.Any("/checkout", deps.CheckoutHandler.HandleCheckout,
		middleware.RateLimit(middleware.CheckoutRateLimiterConfig()))

	// Order reads require a signed-in user.
	authed := r.Group(middleware.RequireAuth)
	authed.Get("/orders", deps.OrdersHandler.ListOrders)
	authed.Get("/orders/{id}", deps.OrdersHandler.GetOrder)

	// Fulfillment management is admin only.
	admin := r.Group(middleware.RequireAdmin)
	admin.Patch("/admin/orders/{id}/status", deps.OrdersHandler.UpdateStatus)

	// Webhooks carry no session; the handler verifies the provider
	// signature instead.
	r.Post("/webhooks/stripe", deps.StripeHandler.HandleWebhook)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
