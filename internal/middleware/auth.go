package middleware

import (
	"context"
	"net/http"
	"strings"

	"app/internal/logger"
	"app/internal/util"
)

// Injected key type to avoid context collisions
type contextKey string

const (
	UserContextKey  = contextKey("user")
	EmailContextKey = contextKey("email")
)

// UserID returns the authenticated user id injected by AuthMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserContextKey).(string)
	return id
}

// Email returns the authenticated user's email injected by AuthMiddleware.
func Email(ctx context.Context) string {
	email, _ := ctx.Value(EmailContextKey).(string)
	return email
}

func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.New()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Error().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Error().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := util.ValidateJWT(parts[1], jwtSecret)
			if err != nil {
				logger.Error().Msgf("Invalid token: %+v", err)
				http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}
			// Embed user ID and email into request context
			ctx := context.WithValue(r.Context(), UserContextKey, claims.Subject)
			ctx = context.WithValue(ctx, EmailContextKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
