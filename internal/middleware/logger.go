package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/oakline/oakline/internal/domain"
)

// WithRequestLogger injects a request-scoped logger into the context.
// The logger carries request metadata and, when available, the
// authenticated user. Services retrieve it with zerolog.Ctx(ctx).
// Place after RequestID and WithUser in the chain.
func WithRequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logCtx := base.With().
				Str("method", r.Method).
				Str("path", r.URL.Path)

			if requestID := domain.RequestIDFromContext(r.Context()); requestID != "" {
				logCtx = logCtx.Str("request_id", requestID)
			}
			if user := domain.UserFromContext(r.Context()); user != nil {
				logCtx = logCtx.Str("user_id", user.ID.String())
			}

			logger := logCtx.Logger()
			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
