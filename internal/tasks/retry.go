package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/likesync/internal/shared"
)

const (
	// defaultRetryAttempts is the total number of tries per remote call.
	defaultRetryAttempts = 3

	// defaultRetryDelay is the fixed pause between attempts. No backoff
	// growth and no jitter: worst case per call stays bounded at roughly
	// (attempts-1) × delay.
	defaultRetryDelay = 3 * time.Second
)

// withRetries executes fn up to attempts times, sleeping delay between tries.
//
// Only [shared.ErrTimeout] failures are retried; any other error kind is a
// structural failure and returns immediately. On exhaustion the last timeout
// error is returned wrapped, still matching errors.Is(err, shared.ErrTimeout).
func withRetries(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, shared.ErrTimeout) {
			return lastErr
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("all %d attempts timed out: %w", attempts, lastErr)
}
