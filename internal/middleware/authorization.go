package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the session belongs to an admin.
// It must run after SessionMiddleware.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context", zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if role != RoleAdmin {
				fields := []zap.Field{zap.String("role", role), zap.String("path", r.URL.Path)}
				if client, ok := ClientFromContext(r.Context()); ok {
					fields = append(fields, zap.Int64("client_id", client.ID))
				}
				logger.Warn("Non-admin user attempted to access admin endpoint", fields...)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
