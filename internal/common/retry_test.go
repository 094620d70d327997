package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	tests := []struct {
		name             string
		failUntilN       int
		maxRetries       int
		expectedAttempts int
		shouldSucceed    bool
	}{
		{"success on second attempt", 2, 3, 2, true},
		{"success on last retry", 4, 3, 4, true},
		{"fail all attempts", 10, 3, 4, false},
		{"no retries", 2, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), func() error {
				attempts++
				if attempts < tt.failUntilN {
					return errors.New("temporary failure")
				}
				return nil
			}, WithMaxRetries(tt.maxRetries), WithInitialDelay(time.Millisecond))

			if tt.shouldSucceed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			assert.Equal(t, tt.expectedAttempts, attempts)
		})
	}
}

func TestDo_RetryIfStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("not found")
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return permanent
	},
		WithInitialDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return !errors.Is(err, permanent) }),
	)

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("fail")
	}, WithInitialDelay(time.Second))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_NilFunction(t *testing.T) {
	assert.Error(t, Do(context.Background(), nil))
}

func TestDo_ErrorWrapping(t *testing.T) {
	cause := errors.New("upstream down")
	err := Do(context.Background(), func() error { return cause },
		WithMaxRetries(1), WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "retry failed after 2 attempts")
}

func TestCalculateDelay(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{10, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, calculateDelay(tt.attempt, 100*time.Millisecond, time.Second, 2.0))
	}
}
