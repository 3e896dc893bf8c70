package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rocketshoes/cartservice/pkg/logger"
)

// RequestLogger stores a request-scoped logger, enriched with
// correlation_id, trace_id, and span_id, in the request context. Handlers
// retrieve it with logger.FromContext.
//
// Mount after RequestLogging (sets the correlation ID) and Tracing (sets
// the span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
