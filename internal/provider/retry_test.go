package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastPolicy(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &Error{Kind: KindRateLimit, Message: "slow down"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastPolicy(), func(ctx context.Context) error {
		attempts++
		return &Error{Kind: KindValidation, Message: "bad payload"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsKind(err, KindValidation))
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastPolicy(), func(ctx context.Context) error {
		attempts++
		return &Error{Kind: KindTransientNetwork, Message: "flaky"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.True(t, IsKind(err, KindTransientNetwork))
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := WithRetry(ctx, RetryPolicy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond}, func(ctx context.Context) error {
		attempts++
		cancel()
		return &Error{Kind: KindRateLimit}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
