package ratelimit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/toyorcee/9thwaka-earnings-core/internal/metrics"
)

// Config holds rate limiting configuration.
type Config struct {
	// Global rate limiting (across all requests).
	GlobalEnabled bool
	GlobalLimit   int
	GlobalWindow  time.Duration
	GlobalBurst   int

	// Referral rate limiting (per rider, on the referral-redeem endpoint —
	// abuse here directly mints wallet credit).
	ReferralEnabled bool
	ReferralLimit   int
	ReferralWindow  time.Duration
	ReferralBurst   int

	// Per-IP rate limiting, applied to every request alongside the global limit.
	PerIPEnabled bool
	PerIPLimit   int
	PerIPWindow  time.Duration
	PerIPBurst   int

	Metrics *metrics.Metrics
}

type rateLimitResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

// DefaultConfig returns sensible default rate limits: generous enough to
// not restrict legitimate use, tight enough to stop obvious abuse.
func DefaultConfig() Config {
	return Config{
		GlobalEnabled: true,
		GlobalLimit:   1000,
		GlobalWindow:  1 * time.Minute,
		GlobalBurst:   100,

		ReferralEnabled: true,
		ReferralLimit:   10,
		ReferralWindow:  1 * time.Minute,
		ReferralBurst:   3,

		PerIPEnabled: true,
		PerIPLimit:   120,
		PerIPWindow:  1 * time.Minute,
		PerIPBurst:   20,
	}
}

func createRateLimitHandler(
	limitType string,
	windowSeconds int,
	extractIdentifier func(*http.Request) string,
	metricsCollector *metrics.Metrics,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		identifier := "all"
		if extractIdentifier != nil {
			if id := extractIdentifier(r); id != "" {
				identifier = id
			}
		}

		if metricsCollector != nil {
			metricsCollector.ObserveRateLimit(limitType, identifier)
		}

		var message string
		switch limitType {
		case "global":
			message = "Global rate limit exceeded. Please try again later."
		case "referral":
			if identifier != "" && identifier != "all" && identifier != "unknown" {
				message = fmt.Sprintf("Referral rate limit exceeded for rider %s. Please try again later.", identifier)
			} else {
				message = "Rate limit exceeded. Please try again later."
			}
		case "per_ip":
			message = "IP rate limit exceeded. Please try again later."
		default:
			message = "Rate limit exceeded. Please try again later."
		}

		response := rateLimitResponse{
			Error:             "rate_limit_exceeded",
			Message:           message,
			RetryAfterSeconds: windowSeconds,
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSeconds))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(response)
	}
}

// GlobalLimiter creates a global rate limiter middleware.
func GlobalLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.GlobalEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.GlobalLimit,
		cfg.GlobalWindow,
		httprate.WithLimitHandler(
			createRateLimitHandler("global", int(cfg.GlobalWindow.Seconds()), nil, cfg.Metrics),
		),
	)
}

// ReferralLimiter creates a per-rider rate limiter for the referral-redeem
// endpoint. Falls back to IP-based limiting when the rider id can't be
// extracted (malformed request — the handler will reject it anyway).
func ReferralLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.ReferralEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.ReferralLimit,
		cfg.ReferralWindow,
		httprate.WithKeyFuncs(riderKeyExtractor),
		httprate.WithLimitHandler(
			createRateLimitHandler("referral", int(cfg.ReferralWindow.Seconds()), extractRiderFromRequest, cfg.Metrics),
		),
	)
}

// IPLimiter creates a per-IP rate limiter middleware.
func IPLimiter(cfg Config) func(http.Handler) http.Handler {
	if !cfg.PerIPEnabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.PerIPLimit,
		cfg.PerIPWindow,
		httprate.WithKeyByIP(),
		httprate.WithLimitHandler(
			createRateLimitHandler("per_ip", int(cfg.PerIPWindow.Seconds()), func(r *http.Request) string { return r.RemoteAddr }, cfg.Metrics),
		),
	)
}

// riderKeyExtractor is an httprate.KeyFunc that keys by rider id, falling
// back to IP when the request carries none.
func riderKeyExtractor(r *http.Request) (string, error) {
	rider := extractRiderFromRequest(r)
	if rider == "" {
		return httprate.KeyByIP(r)
	}
	return "rider:" + rider, nil
}

// extractRiderFromRequest pulls the rider id from the auth header used by
// rider-scoped endpoints.
func extractRiderFromRequest(r *http.Request) string {
	if rider := r.Header.Get("X-Rider-Id"); rider != "" {
		return rider
	}
	return ""
}
