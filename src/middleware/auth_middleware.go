package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack-server/src/auth"
	"fintrack-server/src/logger"
	"fintrack-server/src/util"
)

type contextKey string

const claimsKey contextKey = "claims"

var errMissingToken = errors.New("missing token")

// ParseTokenFromRequest extracts the bearer token and validates it.
func ParseTokenFromRequest(r *http.Request, tokens *auth.Tokens) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errMissingToken
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil, fmt.Errorf("%w: expected bearer scheme", auth.ErrInvalidToken)
	}
	return tokens.Parse(tokenString)
}

func JWTAuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ParseTokenFromRequest(r, tokens)
			if err != nil {
				msg := "invalid token"
				switch {
				case errors.Is(err, errMissingToken):
					msg = "missing token"
				case errors.Is(err, auth.ErrRevoked):
					msg = "token has been revoked"
				}
				util.WriteError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			log := logger.FromContext(ctx).With(logger.FieldUserID, claims.UserID)
			ctx = logger.WithContext(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated user, or "" outside the
// protected group.
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}
