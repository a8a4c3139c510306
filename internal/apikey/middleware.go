package apikey

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/toyorcee/9thwaka-earnings-core/internal/errors"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const contextKeyIsAdmin contextKey = "is_admin"

// Config holds admin API key configuration.
type Config struct {
	// AdminKey is the shared secret required on /admin/* routes via the
	// X-Admin-Api-Key header. When empty, every guarded request is
	// rejected with an Internal (500) error.
	AdminKey string
}

// Middleware rejects requests to admin routes that don't present the
// configured admin key, and marks authenticated requests in context so
// handlers can tell an admin-authenticated call from a rider-scoped one.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.AdminKey == "" {
				errors.WriteError(w, errors.New(errors.Internal, "admin api key not configured"))
				return
			}

			provided := r.Header.Get("X-Admin-Api-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.AdminKey)) != 1 {
				errors.WriteError(w, errors.New(errors.Unauthorized, "invalid or missing admin api key"))
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyIsAdmin, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAdmin reports whether the request has passed the admin key guard.
func IsAdmin(r *http.Request) bool {
	v, _ := r.Context().Value(contextKeyIsAdmin).(bool)
	return v
}
