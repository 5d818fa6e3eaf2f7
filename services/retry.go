package services

import (
	"context"
	"fmt"
	"time"

	"trade-tracker/observability"
)

// RetryConfig bounds WithRetry. MaxRetries counts retries after the first
// attempt, so a call runs fn at most MaxRetries+1 times.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  100 * time.Millisecond,
	MaxDelay:   5 * time.Second,
}

// WithRetry runs fn until it succeeds, the retries are exhausted, or the
// context ends. The delay between attempts doubles from BaseDelay up to
// MaxDelay.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.BaseDelay

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("all %d attempts failed: %w", attempt+1, err)
		}

		observability.Debug("attempt failed, backing off",
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
