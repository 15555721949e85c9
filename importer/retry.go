package importer

import (
	"context"
	"time"
)

// RetryConfig bounds the retry loop around each store call.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
	BackoffMax time.Duration
}

// withRetry runs fn, retrying retryable failures up to MaxRetries extra
// attempts with exponential backoff. Terminal errors and context
// cancellation return immediately.
func withRetry(ctx context.Context, cfg RetryConfig, onRetry func(), fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries || !Retryable(err) {
			return err
		}
		if onRetry != nil {
			onRetry()
		}

		timer := time.NewTimer(backoffDelay(cfg, attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := cfg.Backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := cfg.BackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}
