package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"beauty-booking/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	clientKey   contextKey = "client"
	sinkKey     contextKey = "client_sink"
	UserRoleKey contextKey = "user_role"
)

// RoleAdmin is the role allowed on the admin endpoints
const RoleAdmin = "admin"

// SessionClaims are the claims carried by tokens from the identity provider
type SessionClaims struct {
	UserID    int64  `json:"user_id"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// SessionMiddleware verifies the bearer token and puts the logged-in client in the
// request context. Requests without a valid session get a 401 pointing at loginPath.
func SessionMiddleware(jwtSecret, loginPath string, logger *zap.Logger) func(http.Handler) http.Handler {
	unauthorized := func(w http.ResponseWriter, message string) {
		RespondWithErrorDetails(w, http.StatusUnauthorized, message, map[string]interface{}{
			"redirect": loginPath,
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				unauthorized(w, "please sign in")
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				logger.Debug("Invalid authorization header format")
				unauthorized(w, "invalid authorization header format")
				return
			}

			claims := &SessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					unauthorized(w, "session expired")
				} else {
					unauthorized(w, "invalid token")
				}
				return
			}

			if !token.Valid || claims.UserID <= 0 {
				logger.Debug("Token carries no usable client")
				unauthorized(w, "invalid token claims")
				return
			}

			client := &domain.Client{
				ID:        claims.UserID,
				FirstName: claims.FirstName,
				LastName:  claims.LastName,
			}

			if sink, ok := r.Context().Value(sinkKey).(*int64); ok {
				*sink = client.ID
			}

			logger.Debug("Client authenticated",
				zap.Int64("client_id", client.ID),
				zap.String("role", claims.Role),
			)

			next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), client, claims.Role)))
		})
	}
}

// WithClient stores the session client and role in ctx
func WithClient(ctx context.Context, client *domain.Client, role string) context.Context {
	ctx = context.WithValue(ctx, clientKey, client)
	return context.WithValue(ctx, UserRoleKey, role)
}

func withClientSink(ctx context.Context, sink *int64) context.Context {
	return context.WithValue(ctx, sinkKey, sink)
}

// ClientFromContext returns the logged-in client, if any
func ClientFromContext(ctx context.Context) (*domain.Client, bool) {
	client, ok := ctx.Value(clientKey).(*domain.Client)
	return client, ok && client != nil
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
