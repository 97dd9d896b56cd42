package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetrySucceedsEventually(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 2, Backoff: true}, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "failed after 2 attempts: boom")
	assert.Equal(t, 2, calls)
}

func TestWithRetrySingleAttempt(t *testing.T) {
	boom := errors.New("boom")
	for _, n := range []int{0, 1} {
		calls := 0
		err := WithRetry(context.Background(), RetryConfig{MaxAttempts: n}, func() error {
			calls++
			return boom
		})
		assert.Equal(t, boom, err)
		assert.Equal(t, 1, calls)
	}
}

func TestWithRetryPermanent(t *testing.T) {
	boom := errors.New("bad request")
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 5}, func() error {
		calls++
		return Permanent(boom)
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxAttempts: 3, Delay: time.Hour}, func() error {
		calls++
		cancel()
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
