package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"aquacare/internal/api/respond"
)

// Recoverer turns a handler panic into a JSON 500 response. Callers always
// receive a structured error body, never a bare status line.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("correlation_id", GetCorrelationID(r.Context())),
						zap.Stack("stack"),
					)
					respond.Error(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
