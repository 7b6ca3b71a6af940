package middleware

import (
	"net/http"

	"fintrack-server/src/util"
)

// ReadOnlyMiddleware rejects every mutating request except signing in and out
// when enabled. Demo deployments run with it on.
func ReadOnlyMiddleware(enabled bool) func(http.Handler) http.Handler {
	allowedPosts := map[string]bool{
		"/api/login":    true,
		"/api/register": true,
		"/api/users":    true,
		"/api/logout":   true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enabled {
				switch {
				case r.Method == http.MethodGet, r.Method == http.MethodHead, r.Method == http.MethodOptions:
				case r.Method == http.MethodPost && allowedPosts[r.URL.Path]:
				default:
					util.WriteError(w, http.StatusForbidden, "read-only mode: changes are disabled")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
