package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fast() []Option {
	return []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}
}

func TestDo_RetriesMarkedErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errFlaky)
		}
		return nil
	}, append(fast(), WithMaxAttempts(5))...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnUnmarkedError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errFlaky
	}, fast()...)

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentIsUnwrapped(t *testing.T) {
	err := Do(context.Background(), func(ctx context.Context) error {
		return Permanent(errFlaky)
	}, append(fast(), WithRetryIf(func(error) bool { return true }))...)

	assert.Equal(t, errFlaky, err)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	var retried []int
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(errFlaky)
	}, append(fast(),
		WithMaxAttempts(3),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }),
	)...)

	assert.Equal(t, errFlaky, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	r := New(WithInitialDelay(10*time.Millisecond), WithMaxDelay(35*time.Millisecond), WithJitter(0))

	assert.Equal(t, 10*time.Millisecond, r.Backoff(1))
	assert.Equal(t, 20*time.Millisecond, r.Backoff(2))
	assert.Equal(t, 35*time.Millisecond, r.Backoff(3))
}

func TestDoWithData(t *testing.T) {
	v, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
