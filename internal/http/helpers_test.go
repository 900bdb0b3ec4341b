package http_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/dirapi/internal/clock"
	dirhttp "github.com/fivetwenty-io/dirapi/internal/http"
)

// MockLogger records log calls for assertions.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.record("debug", msg, fields)
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.record("info", msg, fields)
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.record("warn", msg, fields)
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.record("error", msg, fields)
}

// Messages returns the messages logged at level.
func (l *MockLogger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string

	for _, entry := range l.logs {
		if entry["level"] == level {
			out = append(out, entry["msg"].(string))
		}
	}

	return out
}

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// newTestClient builds a client for an httptest server whose API lives under
// /api/v1, with a fake clock so backoff never really sleeps.
func newTestClient(t *testing.T, serverURL string, opts ...dirhttp.Option) (*dirhttp.Client, *clock.Fake) {
	t.Helper()

	fake := clock.NewFake(testEpoch)

	all := append([]dirhttp.Option{
		dirhttp.WithClock(fake),
		dirhttp.WithReadTimeout(5 * time.Second),
	}, opts...)

	return dirhttp.NewClient(serverURL+"/api", "test-secret", all...), fake
}

// cancelingClock cancels the call's context when a sleep is requested and
// records the requested duration.
type cancelingClock struct {
	*clock.Fake

	cancel context.CancelFunc
	mu     sync.Mutex
	waits  []time.Duration
}

func (c *cancelingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	c.cancel()

	return c.Fake.Sleep(ctx, d)
}

func (c *cancelingClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.waits...)
}

type limiterFunc func(ctx context.Context) error

func (f limiterFunc) Wait(ctx context.Context) error {
	return f(ctx)
}
