package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"dm-relay/auth"
	"dm-relay/errors"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate verifies the bearer token and stores the claims in the
// request context for downstream handlers.
func Authenticate(log *slog.Logger, tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" {
				writeError(log, w, errors.ErrInvalidCredentials)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				log.Debug("Token rejected", "error", err)
				writeError(log, w, errors.ErrInvalidCredentials)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the authenticated claims stored by Authenticate.
func ClaimsFrom(ctx context.Context) (*auth.CustomClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.CustomClaims)
	return claims, ok
}
