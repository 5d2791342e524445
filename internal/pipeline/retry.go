package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/wikigest/internal/store"
)

const MaxRetries = 3

// IsRetryable checks if a sink error is worth retrying.
func IsRetryable(err error) bool {
	return store.IsBusy(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 50 * time.Millisecond
	if base > 2*time.Second {
		base = 2 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// MaxRetries attempts are used.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := range MaxRetries {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
