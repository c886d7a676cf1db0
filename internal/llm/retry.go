package llm

import (
	"context"
	"math/rand"
	"time"
)

const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 10 * time.Second
	retryMaxJitter = 1 * time.Second
)

// withRetry runs fn up to attempts times, sleeping between failures with
// exponential backoff plus jitter. Only retryable errors are retried;
// auth_error and unknown fail immediately. The context cancels the wait.
func withRetry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithBackoff(ctx, attempt); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

// sleepWithBackoff waits for backoffDelay(attempt) or until ctx is done.
func sleepWithBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(backoffDelay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffDelay computes the delay before the given retry attempt:
// base * 2^(attempt-1) plus up to 1s of jitter, capped at 10s.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	delay += time.Duration(rand.Int63n(int64(retryMaxJitter)))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}
