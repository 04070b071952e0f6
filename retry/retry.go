package retry

import (
	"context"
	"fmt"
	"time"
)

// Config bounds a retry loop: Attempts total tries with a fixed Delay
// between them.
type Config struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn up to cfg.Attempts times, waiting cfg.Delay between failures.
// The wait is a timer select, not a thread-blocking sleep, so concurrent
// work stays responsive; ctx cancellation aborts the wait.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.Attempts {
			return fmt.Errorf("failed after %d attempts: %w", cfg.Attempts, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}

	return lastErr
}
