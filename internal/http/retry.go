package http

import (
	"time"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// state is a step of the per-call retry state machine.
type state int

const (
	stateInit state = iota
	stateDispatching
	stateSuccess
	stateAuthRetry
	stateThrottleRetry
	stateFatal
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateDispatching:
		return "dispatching"
	case stateSuccess:
		return "success"
	case stateAuthRetry:
		return "auth-retry"
	case stateThrottleRetry:
		return "throttle-retry"
	case stateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// outcomeKind classifies one physical attempt.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	// outcomeUnauthorized is a 401.
	outcomeUnauthorized
	// outcomeThrottled is a 429 or any 5xx.
	outcomeThrottled
	// outcomeRejected is any other non-2xx status.
	outcomeRejected
	// outcomeNetwork is a transport failure or timeout.
	outcomeNetwork
	// outcomeUndecodable is a 2xx whose body is not a JSON array or object.
	outcomeUndecodable
	// outcomeCanceled means the caller's context ended.
	outcomeCanceled
	// outcomeInvalid means the request could not be built.
	outcomeInvalid
)

type outcome struct {
	kind       outcomeKind
	statusCode int
	response   *dirapi.Response
	apiError   *dirapi.APIError
	err        error
}

// retryState is created per logical call. attempt starts at 1.
type retryState struct {
	attempt     int
	maxAttempts int
}

func (r retryState) canRetry() bool {
	return r.attempt < r.maxAttempts
}

type retryPolicy struct {
	retryOn401 bool
}

// nextState is the transition taken after a dispatch.
func nextState(kind outcomeKind, retry retryState, policy retryPolicy) state {
	switch kind {
	case outcomeSuccess:
		return stateSuccess
	case outcomeUnauthorized:
		if policy.retryOn401 && retry.canRetry() {
			return stateAuthRetry
		}

		return stateFatal
	case outcomeThrottled:
		if retry.canRetry() {
			return stateThrottleRetry
		}

		return stateFatal
	default:
		return stateFatal
	}
}

// backoff is min(cap, 2^attempt seconds), with a 30s cap for auth retries
// and 60s for throttling.
func backoff(s state, attempt int) time.Duration {
	maxWait := constants.ThrottleRetryWaitMax
	if s == stateAuthRetry {
		maxWait = constants.AuthRetryWaitMax
	}

	wait := time.Second
	for i := 0; i < attempt; i++ {
		wait *= constants.ExponentialBackoffBase
		if wait >= maxWait {
			return maxWait
		}
	}

	return wait
}

// errorKind maps the last outcome of a failed call to its error sentinel.
func errorKind(kind outcomeKind) error {
	switch kind {
	case outcomeUnauthorized:
		return dirapi.ErrAuthHTTP
	case outcomeThrottled:
		return dirapi.ErrTransientHTTP
	case outcomeCanceled:
		return dirapi.ErrCanceled
	default:
		return dirapi.ErrFatalHTTP
	}
}
