package provider

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// MaxRetries bounds transient-failure retries on one provider call.
const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// completeWithRetry runs one Complete call, retrying transient failures.
func completeWithRetry(ctx context.Context, c *Client, system, user string, temperature float64) (string, error) {
	var out string
	var err error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		out, err = c.Complete(ctx, system, user, temperature)
		if err == nil || !IsRetryable(err) {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return out, err
}
