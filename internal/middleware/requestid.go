package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/oakline/oakline/internal/domain"
)

// RequestIDHeader is the header name for request ID propagation.
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with a unique ID. An existing
// X-Request-ID header (from a load balancer, etc.) is honored.
// The ID is echoed in the response headers and stored in the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := domain.NewContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return domain.RequestIDFromContext(ctx)
}
