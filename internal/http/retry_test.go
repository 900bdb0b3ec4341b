package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

//nolint:funlen
func TestNextState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     outcomeKind
		retry    retryState
		policy   retryPolicy
		expected state
	}{
		{"success on first attempt", outcomeSuccess, retryState{1, 5}, retryPolicy{}, stateSuccess},
		{"success on last attempt", outcomeSuccess, retryState{5, 5}, retryPolicy{}, stateSuccess},
		{"401 with retry disabled", outcomeUnauthorized, retryState{1, 5}, retryPolicy{retryOn401: false}, stateFatal},
		{"401 with retry enabled", outcomeUnauthorized, retryState{1, 5}, retryPolicy{retryOn401: true}, stateAuthRetry},
		{"401 with retry enabled and budget spent", outcomeUnauthorized, retryState{5, 5}, retryPolicy{retryOn401: true}, stateFatal},
		{"throttled with budget left", outcomeThrottled, retryState{4, 5}, retryPolicy{}, stateThrottleRetry},
		{"throttled with budget spent", outcomeThrottled, retryState{5, 5}, retryPolicy{}, stateFatal},
		{"throttled with single attempt budget", outcomeThrottled, retryState{1, 1}, retryPolicy{}, stateFatal},
		{"other 4xx", outcomeRejected, retryState{1, 5}, retryPolicy{retryOn401: true}, stateFatal},
		{"network failure", outcomeNetwork, retryState{1, 5}, retryPolicy{}, stateFatal},
		{"undecodable body", outcomeUndecodable, retryState{1, 5}, retryPolicy{}, stateFatal},
		{"canceled", outcomeCanceled, retryState{1, 5}, retryPolicy{retryOn401: true}, stateFatal},
		{"invalid request", outcomeInvalid, retryState{1, 5}, retryPolicy{}, stateFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := nextState(tt.kind, tt.retry, tt.policy)
			assert.Equal(t, tt.expected, got, "got %s, want %s", got, tt.expected)
		})
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    state
		attempt  int
		expected time.Duration
	}{
		{stateThrottleRetry, 1, 2 * time.Second},
		{stateThrottleRetry, 2, 4 * time.Second},
		{stateThrottleRetry, 3, 8 * time.Second},
		{stateThrottleRetry, 5, 32 * time.Second},
		{stateThrottleRetry, 6, 60 * time.Second},
		{stateThrottleRetry, 100, 60 * time.Second},
		{stateAuthRetry, 1, 2 * time.Second},
		{stateAuthRetry, 4, 16 * time.Second},
		{stateAuthRetry, 5, 30 * time.Second},
		{stateAuthRetry, 64, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, backoff(tt.state, tt.attempt), "attempt %d", tt.attempt)
		})
	}
}

func TestBackoff_NonDecreasing(t *testing.T) {
	t.Parallel()

	for _, s := range []state{stateAuthRetry, stateThrottleRetry} {
		previous := time.Duration(0)

		for attempt := 1; attempt <= 20; attempt++ {
			wait := backoff(s, attempt)
			assert.GreaterOrEqual(t, wait, previous)
			previous = wait
		}
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, dirapi.ErrAuthHTTP, errorKind(outcomeUnauthorized))
	assert.Equal(t, dirapi.ErrTransientHTTP, errorKind(outcomeThrottled))
	assert.Equal(t, dirapi.ErrCanceled, errorKind(outcomeCanceled))
	assert.Equal(t, dirapi.ErrFatalHTTP, errorKind(outcomeRejected))
	assert.Equal(t, dirapi.ErrFatalHTTP, errorKind(outcomeNetwork))
	assert.Equal(t, dirapi.ErrFatalHTTP, errorKind(outcomeUndecodable))
}

func TestDecodeItems(t *testing.T) {
	t.Parallel()

	items, err := decodeItems([]byte(`[{"id":"a"},{"id":"b"}]`))
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = decodeItems([]byte(` {"id":"a"} `))
	assert.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = decodeItems(nil)
	assert.NoError(t, err)
	assert.Empty(t, items)

	_, err = decodeItems([]byte(`<html>`))
	assert.ErrorIs(t, err, dirapi.ErrUndecodableBody)

	_, err = decodeItems([]byte(`{"id":`))
	assert.ErrorIs(t, err, dirapi.ErrUndecodableBody)

	_, err = decodeItems([]byte(`[1, 2`))
	assert.ErrorIs(t, err, dirapi.ErrUndecodableBody)
}
