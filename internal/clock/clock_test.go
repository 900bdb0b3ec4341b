package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dirapi/internal/clock"
)

func TestFake_SleepAdvancesTime(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)

	require.NoError(t, fake.Sleep(context.Background(), 2*time.Second))
	require.NoError(t, fake.Sleep(context.Background(), 4*time.Second))

	assert.Equal(t, start.Add(6*time.Second), fake.Now())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, fake.Sleeps())
	assert.Equal(t, 6*time.Second, fake.Slept())
}

func TestFake_SleepCanceled(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fake.Sleep(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.Sleeps())
	assert.Equal(t, time.Unix(0, 0), fake.Now())
}

func TestSystem_SleepCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := clock.System{}.Sleep(ctx, time.Minute)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestSystem_SleepCompletes(t *testing.T) {
	t.Parallel()

	err := clock.System{}.Sleep(context.Background(), time.Millisecond)
	require.NoError(t, err)
}

func TestSystem_NowKeepsMonotonicReading(t *testing.T) {
	t.Parallel()

	now := clock.System{}.Now()

	assert.Contains(t, now.String(), "m=")
	assert.NotContains(t, now.Round(0).String(), "m=")
}
