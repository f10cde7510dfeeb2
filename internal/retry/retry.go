// Package retry provides a bounded retry policy for read-type network calls.
package retry

import (
	"context"
	"net/http"
	"time"

	"github.com/deeperscribe/deeperscribe/internal/errors"
)

// Config holds the configuration for retry behavior of an operation.
type Config struct {
	MaxAttempts  int           // Total attempts including the first
	InitialDelay time.Duration // Delay before first retry
	MaxDelay     time.Duration // Ceiling for the backoff delay
	Multiplier   float64       // Backoff multiplier for each subsequent retry
}

// DefaultConfig returns the retry policy applied to registry and scribe reads.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Retryable reports whether an error is worth retrying. Client errors are
// final, with 408 and 429 as the exceptions. Validation, configuration and
// not-found failures are never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		switch enhanced.Category {
		case errors.CategoryValidation, errors.CategoryConfiguration, errors.CategoryNotFound:
			return false
		}
		if code := errors.StatusCode(err); code >= 400 && code < 500 {
			return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
		}
	}
	return true
}

// Do runs fn until it succeeds, exhausts cfg.MaxAttempts, or hits a
// non-retryable error. Mutating operations must not go through Do.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
