package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo_SucceedsAfterRetries(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}, WithBaseDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return errTransient
	}, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "max retries (3) exceeded")
	assert.Equal(t, 3, attempts)
}

func TestDo_RetryIfStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		return permanent
	}, WithBaseDelay(time.Millisecond), WithRetryIf(func(err error) bool {
		return errors.Is(err, errTransient)
	}))

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func() error {
		attempts++
		cancel()
		return errTransient
	}, WithBaseDelay(time.Hour))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestCalculateBackoff(t *testing.T) {
	base := time.Second
	max := 10 * time.Second

	assert.Equal(t, 1*time.Second, calculateBackoff(0, base, max))
	assert.Equal(t, 2*time.Second, calculateBackoff(1, base, max))
	assert.Equal(t, 8*time.Second, calculateBackoff(3, base, max))
	assert.Equal(t, max, calculateBackoff(4, base, max))
}
