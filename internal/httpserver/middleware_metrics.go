package httpserver

import (
	"net/http"

	waerrors "github.com/toyorcee/9thwaka-earnings-core/internal/errors"
)

// adminMetricsAuth protects /metrics with a shared key when one is
// configured. With no key set the scrape endpoint is open, matching
// local-dev expectations.
func adminMetricsAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "Bearer "+apiKey {
				waerrors.WriteError(w, waerrors.New(waerrors.Unauthorized, "invalid or missing admin api key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
