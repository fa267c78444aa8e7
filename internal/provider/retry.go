package provider

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a retryable provider call is reattempted.
// Only rate-limit and transient-network failures are retried; everything
// else returns on the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// WithRetry runs fn with exponential backoff until it succeeds, returns a
// non-retryable error, exhausts the attempt budget, or the context ends.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	delay := policy.BaseDelay
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return err
}
