package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itsDrac/gemstone-auction/internal/handlers"
	"github.com/itsDrac/gemstone-auction/pkg/config"
)

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (*config.UserClaims, error)
}

func AuthMiddleware(v TokenValidator) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.Split(authHeader, " ")

			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrMissingToken.Error(), "Missing token in the Authorization header", nil)
				return
			}
			accessTokenString := parts[1]

			claims, err := v.ValidateAccessToken(accessTokenString)
			if err != nil {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrToken.Error(), "Token is either revoked or invalid.", nil)
				return
			}

			ctx := context.WithValue(r.Context(), config.UserClaimKey, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose claims do not carry role. It must run
// after AuthMiddleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := handlers.GetUserClaims(r.Context())
			if claims == nil {
				handlers.RespondErrorJSON(w, r, http.StatusUnauthorized, handlers.ErrAuthFailed.Error(), "user claims not found in context", nil)
				return
			}
			if claims.Role != role {
				handlers.RespondErrorJSON(w, r, http.StatusForbidden, handlers.ErrForbidden.Error(), "operator role required", nil)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
