package dispatcher

import (
	"context"
	"time"

	"github.com/dshills/transllm/pkg/types"
)

// Default retry configuration
const (
	DefaultMaxAttempts       = 3
	DefaultInitialBackoffMs  = 100
	DefaultMaxBackoffMs      = 5000
	DefaultBackoffMultiplier = 2.0
)

// RetryConfig configures exponential backoff retry behavior for
// transient backend failures. Permanent failures are never retried.
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first call
	BaseDelay   time.Duration // Initial delay between attempts
	MaxDelay    time.Duration // Cap on the backoff delay
	Multiplier  float64       // Exponential backoff multiplier
}

// DefaultRetryConfig returns sensible defaults for API retry.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultInitialBackoffMs * time.Millisecond,
		MaxDelay:    DefaultMaxBackoffMs * time.Millisecond,
		Multiplier:  DefaultBackoffMultiplier,
	}
}

// retryWithBackoff executes fn with exponential backoff on transient
// errors. It returns immediately on success, on a permanent-class
// error, or on context cancellation. attempts reports how many calls
// were made.
func retryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (result T, attempts int, err error) {
	var zero T
	backoff := cfg.BaseDelay
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = fn()
		attempts = attempt + 1
		if err == nil {
			return result, attempts, nil
		}

		if ctx.Err() != nil {
			return zero, attempts, ctx.Err()
		}
		if !types.IsTransient(err) {
			return zero, attempts, err
		}

		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, attempts, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.Multiplier)
				if backoff > cfg.MaxDelay {
					backoff = cfg.MaxDelay
				}
			}
		}
	}

	return zero, attempts, err
}
