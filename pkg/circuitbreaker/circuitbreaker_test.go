package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("down")

func fail(context.Context) error { return errDown }
func ok(context.Context) error   { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New("catalog", WithFailureThreshold(2))

	assert.ErrorIs(t, cb.Execute(context.Background(), fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(context.Background(), fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), ok)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejection(err))
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Unix(0, 0)
	var transitions []string
	cb := New("catalog",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithTimeout(time.Minute),
		WithClock(func() time.Time { return now }),
		WithOnStateChange(func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Minute)
	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_HalfOpenNeedsConsecutiveProbes(t *testing.T) {
	now := time.Unix(0, 0)
	cb := New("catalog",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	_ = cb.Execute(context.Background(), fail)
	now = now.Add(2 * time.Minute)

	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	cb := New("catalog",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, errDown) }),
	)

	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Counts().TotalSuccesses)
}

func TestBreaker_Reset(t *testing.T) {
	cb := New("catalog", WithFailureThreshold(1))
	_ = cb.Execute(context.Background(), fail)
	cb.Reset()

	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Counts().Requests)
}
