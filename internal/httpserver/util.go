package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
)

// decodeJSON decodes a JSON request body into dest. The reader is
// closed after decoding.
func decodeJSON(r io.ReadCloser, dest any) error {
	defer r.Close()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// riderIDFromRequest reads the rider identity header. This domain has
// no bearer-token authentication layer of its own (§6 is silent on
// rider authN; "rating, presence, notifications are collaborators, not
// core"), so rider-scoped endpoints trust an upstream gateway to set
// this header, the same convention internal/ratelimit's referral
// limiter already keys on.
func riderIDFromRequest(r *http.Request) string {
	return r.Header.Get("X-Rider-Id")
}
