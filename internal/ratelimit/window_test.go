package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dirapi/internal/clock"
	"github.com/fivetwenty-io/dirapi/internal/ratelimit"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestWindow_ThirdCallBlocksUntilWindowBoundary(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	window := ratelimit.NewWindow(2, ratelimit.WithClock(fake))
	ctx := context.Background()

	require.NoError(t, window.Wait(ctx))

	fake.Advance(time.Second)
	require.NoError(t, window.Wait(ctx))

	fake.Advance(time.Second)
	require.NoError(t, window.Wait(ctx))

	assert.Equal(t, []time.Duration{58 * time.Second}, fake.Sleeps())
	assert.Equal(t, epoch.Add(60*time.Second), fake.Now())

	snapshot := window.Snapshot()
	assert.Equal(t, epoch.Add(60*time.Second), snapshot.Start)
	assert.Equal(t, 1, snapshot.Count)
}

func TestWindow_NeverExceedsLimitWithinWindow(t *testing.T) {
	t.Parallel()

	const limit = 5

	fake := clock.NewFake(epoch)
	window := ratelimit.NewWindow(limit, ratelimit.WithClock(fake))
	ctx := context.Background()

	dispatches := make(map[time.Time]int)

	for i := 0; i < 23; i++ {
		require.NoError(t, window.Wait(ctx))

		snapshot := window.Snapshot()
		dispatches[snapshot.Start]++

		assert.LessOrEqual(t, snapshot.Count, limit)
		fake.Advance(3 * time.Second)
	}

	for start, count := range dispatches {
		assert.LessOrEqual(t, count, limit, "window starting %s", start)
	}
}

func TestWindow_ResetsAfterWindowElapses(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	window := ratelimit.NewWindow(1, ratelimit.WithClock(fake))
	ctx := context.Background()

	require.NoError(t, window.Wait(ctx))

	fake.Advance(61 * time.Second)
	require.NoError(t, window.Wait(ctx))

	assert.Empty(t, fake.Sleeps())
	assert.Equal(t, 1, window.Snapshot().Count)
}

func TestWindow_CeilsPartialSeconds(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	window := ratelimit.NewWindow(1, ratelimit.WithClock(fake))
	ctx := context.Background()

	require.NoError(t, window.Wait(ctx))

	fake.Advance(1500 * time.Millisecond)
	require.NoError(t, window.Wait(ctx))

	sleeps := fake.Sleeps()
	require.NotEmpty(t, sleeps)
	assert.Equal(t, 59*time.Second, sleeps[0])
}

func TestWindow_CanceledWaitClaimsNoSlot(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(epoch)
	window := ratelimit.NewWindow(1, ratelimit.WithClock(fake))

	require.NoError(t, window.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := window.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, window.Snapshot().Count)
	assert.Empty(t, fake.Sleeps())
}

func TestWindow_ConcurrentCallersShareBudget(t *testing.T) {
	t.Parallel()

	const (
		limit   = 10
		callers = 10
	)

	fake := clock.NewFake(epoch)
	window := ratelimit.NewWindow(limit, ratelimit.WithClock(fake))

	var wg sync.WaitGroup

	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs <- window.Wait(context.Background())
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, limit, window.Snapshot().Count)
	assert.Empty(t, fake.Sleeps())
}

func TestWindow_SystemClockCancellation(t *testing.T) {
	t.Parallel()

	window := ratelimit.NewWindow(1)
	require.NoError(t, window.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := window.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewWindow_ClampsLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ratelimit.NewWindow(0).Limit())
	assert.Equal(t, 1, ratelimit.NewWindow(-4).Limit())
}
