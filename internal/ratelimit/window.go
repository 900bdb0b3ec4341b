// Package ratelimit paces request dispatch with a fixed-window counter.
//
// The window is fixed, not sliding: it starts at the first dispatch after a
// reset and lasts RateLimitWindow. Up to twice the limit may be dispatched
// across a window boundary. This approximation is kept on purpose.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fivetwenty-io/dirapi/internal/clock"
	"github.com/fivetwenty-io/dirapi/internal/constants"
)

// Window is a fixed-window dispatch counter. It is safe for concurrent use.
type Window struct {
	mu     sync.Mutex
	clock  clock.Clock
	limit  int
	length time.Duration
	start  time.Time
	count  int
}

// Snapshot is a point-in-time copy of a Window's counters.
type Snapshot struct {
	Start time.Time
	Count int
	Limit int
}

// Option configures a Window.
type Option func(*Window)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(w *Window) {
		w.clock = c
	}
}

// WithLength overrides the window length.
func WithLength(d time.Duration) Option {
	return func(w *Window) {
		if d > 0 {
			w.length = d
		}
	}
}

// NewWindow creates a window allowing limit dispatches per window. A limit
// below 1 is treated as 1.
func NewWindow(limit int, opts ...Option) *Window {
	if limit < 1 {
		limit = 1
	}

	w := &Window{
		clock:  clock.System{},
		limit:  limit,
		length: constants.RateLimitWindow,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Wait blocks until a dispatch slot is available in the current window and
// claims it. A canceled wait returns ctx.Err() and claims nothing.
func (w *Window) Wait(ctx context.Context) error {
	for {
		err := ctx.Err()
		if err != nil {
			return err
		}

		wait, ok := w.reserve()
		if ok {
			return nil
		}

		err = w.clock.Sleep(ctx, wait)
		if err != nil {
			return err
		}
	}
}

// reserve claims a slot, or returns how long to sleep before trying again.
func (w *Window) reserve() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	elapsed := now.Sub(w.start)

	if w.start.IsZero() || elapsed >= w.length || elapsed < 0 {
		w.start = now
		w.count = 0
		elapsed = 0
	}

	if w.count < w.limit {
		w.count++

		return 0, true
	}

	seconds := math.Ceil((w.length - elapsed).Seconds())

	return time.Duration(seconds) * time.Second, false
}

// Snapshot returns the current counters.
func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Snapshot{Start: w.start, Count: w.count, Limit: w.limit}
}

// Limit returns the per-window dispatch budget.
func (w *Window) Limit() int {
	return w.limit
}
