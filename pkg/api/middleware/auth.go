// Package middleware provides HTTP middleware for the control-plane API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/marmos91/offlinecache/pkg/api/handlers"
)

// extractBearerToken extracts the token from a Bearer Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// TokenAuth requires "Authorization: Bearer <token>" on every request. An
// empty token disables the check.
func TokenAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := extractBearerToken(r)
			if !ok {
				handlers.Unauthorized(w, "Authorization header required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				handlers.Unauthorized(w, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
