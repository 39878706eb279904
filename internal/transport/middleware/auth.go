package middleware

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/pkg/logger"
)

// TokenValidator validates a bearer token and returns the user id it carries.
type TokenValidator interface {
	ValidateAccessToken(token string) (userID string, err error)
}

// Authenticate resolves the caller's identity from the Authorization header
// and stores the user id in the request context. Identity is resolved once
// per request and never cached across requests.
func Authenticate(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := validator.ValidateAccessToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				logger.From(r.Context()).Warn("token validation failed", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := internal.ContextWithUserID(r.Context(), userID)
			ctx = logger.With(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
