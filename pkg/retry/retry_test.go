package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSleep(slept *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 4,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  2,
		Sleep:       fakeSleep(&slept),
	}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// 前两次失败后各退避一次，指数增长
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, slept)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		Sleep:       fakeSleep(&slept),
	}

	calls := 0
	boom := errors.New("still down")
	err := p.Do(context.Background(), func() error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	// 最后一次失败后不再退避
	assert.Len(t, slept, 2)
}

func TestDoPermanentStopsImmediately(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		Sleep:       fakeSleep(&slept),
	}

	calls := 0
	bad := errors.New("bad request")
	err := p.Do(context.Background(), func() error {
		calls++
		return Permanent{Err: bad}
	})

	require.Error(t, err)
	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestDoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}
	err := p.Do(ctx, func() error { return errors.New("never reached") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelayCapped(t *testing.T) {
	p := Policy{
		BaseDelay:  time.Second,
		Multiplier: 10,
		MaxDelay:   5 * time.Second,
	}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 5*time.Second, p.Delay(1))
	assert.Equal(t, 5*time.Second, p.Delay(8))
}
