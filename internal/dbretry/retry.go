// Package dbretry wraps storage operations with retry logic for
// transient contention — Mongo write conflicts, Postgres serialization
// failures, connection resets — so a single-document transaction racing
// the payout generator or the commission splitter doesn't surface a
// contention error to the caller on its first attempt.
package dbretry

import (
	"context"
	"strings"
	"time"

	"github.com/toyorcee/9thwaka-earnings-core/internal/logger"
)

// retryConfig defines retry behavior for storage operations.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
}

// defaultRetryConfig returns sensible defaults for storage-contention retries.
func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
	}
}

// WithRetry wraps a storage operation with retry logic using exponential
// backoff. It retries on transient errors: write conflicts, connection
// resets, and serialization failures.
func WithRetry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return WithRetryCustom(ctx, defaultRetryConfig(), operation)
}

// WithRetryCustom allows custom retry configuration.
func WithRetryCustom[T any](ctx context.Context, cfg retryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return result, err
		}

		if !isRetryableError(err) {
			return result, err
		}

		if attempt == cfg.maxRetries {
			break
		}

		// Exponential backoff: 100ms, 200ms, 400ms.
		delay := cfg.baseDelay * time.Duration(1<<uint(attempt))
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", cfg.maxRetries+1).
			Dur("retry_delay", delay).
			Msg("dbretry.operation_retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, err
}

// isRetryableError determines if a storage error is worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	// Mongo write conflicts / transient transaction errors.
	if strings.Contains(msg, "writeconflict") ||
		strings.Contains(msg, "transienttransactionerror") ||
		strings.Contains(msg, "contention") {
		return true
	}

	// Postgres serialization / deadlock failures (SQLSTATE 40001, 40P01).
	if strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40p01") {
		return true
	}

	// Network/connection errors common to both backends.
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "network") {
		return true
	}

	return false
}
