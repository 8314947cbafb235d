package intel

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// withRetry runs fn up to attempts times with exponential backoff and jitter
// between failures.
func withRetry(ctx context.Context, attempts int, baseWait time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	if baseWait <= 0 {
		baseWait = time.Second
	}

	var lastErr error
	wait := baseWait
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		// Add up to 20% jitter so concurrent callers do not retry in step.
		sleep := wait
		if jitterRange := int64(wait) / 5; jitterRange > 0 {
			sleep += time.Duration(rand.Int64N(jitterRange))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		wait *= 2
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
