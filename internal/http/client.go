// Package http implements the paced, retrying request executor and the
// Link-header paginator shared by every resource client.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/dirapi/internal/clock"
	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/internal/logging"
	"github.com/fivetwenty-io/dirapi/internal/ratelimit"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// Limiter paces dispatches.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client is the per-session request context: endpoint, credential, retry and
// pacing policy. Everything but the limiter's counters is fixed at
// construction, so a Client is safe for concurrent use.
type Client struct {
	baseURL     string
	apiVersion  string
	host        string
	tokenHeader string
	tokenPrefix string
	secret      string
	userAgent   string
	retryOn401  bool
	maxAttempts int
	readTimeout time.Duration
	maxPages    int
	rateLimit   int

	limiter    Limiter
	clock      clock.Clock
	logger     dirapi.Logger
	httpClient *http.Client
	transport  *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger dirapi.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithClock sets the clock used for backoff and, unless WithLimiter is
// given, for the rate limiter.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithLimiter replaces the per-client rate limiter. Clients sharing one
// limiter share its budget.
func WithLimiter(limiter Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithRateLimit sets dispatches allowed per 60 second window.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		c.rateLimit = perMinute
	}
}

// WithMaxRetries sets the total attempt budget per logical call.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) {
		c.maxAttempts = maxRetries
	}
}

// WithRetryOn401 enables retrying authentication failures.
func WithRetryOn401(enabled bool) Option {
	return func(c *Client) {
		c.retryOn401 = enabled
	}
}

// WithReadTimeout bounds each physical attempt.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.readTimeout = timeout
	}
}

// WithMaxPages sets the default page cap for Collect. Zero means unlimited.
func WithMaxPages(maxPages int) Option {
	return func(c *Client) {
		c.maxPages = maxPages
	}
}

// WithAPIVersion sets the path segment inserted after the base URL.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = strings.Trim(version, "/")
	}
}

// WithAuthHeader sets the header carrying the secret and its value prefix.
func WithAuthHeader(header, prefix string) Option {
	return func(c *Client) {
		if header != "" {
			c.tokenHeader = header
		}

		c.tokenPrefix = prefix
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient sets the underlying HTTP client. The executor works on a
// copy whose Timeout is the read timeout; client itself is not modified.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a request executor for baseURL. The secret is sent as
// "<prefix> <secret>" in the token header; an empty secret sends no header.
func NewClient(baseURL, secret string, opts ...Option) *Client {
	client := &Client{
		baseURL:     strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		apiVersion:  constants.DefaultAPIVersion,
		tokenHeader: constants.DefaultTokenHeader,
		tokenPrefix: constants.DefaultTokenPrefix,
		secret:      secret,
		userAgent:   constants.DefaultUserAgent,
		maxAttempts: constants.DefaultMaxRetries,
		readTimeout: time.Duration(constants.DefaultReadTimeoutSeconds) * time.Second,
		rateLimit:   constants.DefaultRateLimitPerMinute,
		clock:       clock.System{},
		logger:      logging.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.maxAttempts < 1 {
		client.maxAttempts = 1
	}

	if client.maxPages < 0 {
		client.maxPages = 0
	}

	if parsed, err := url.Parse(client.baseURL); err == nil {
		client.host = strings.ToLower(parsed.Host)
	}

	if client.limiter == nil {
		client.limiter = ratelimit.NewWindow(client.rateLimit, ratelimit.WithClock(client.clock))
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Transport: cleanhttp.DefaultPooledTransport()}
	} else {
		copied := *client.httpClient
		client.httpClient = &copied
	}

	client.httpClient.Timeout = client.readTimeout
	client.transport = newSingleAttemptClient(client.httpClient)

	return client
}

// newSingleAttemptClient wraps httpClient in a retryablehttp client that
// never retries on its own. Retries are driven by the executor's state
// machine; retryablehttp supplies rewindable request bodies.
func newSingleAttemptClient(httpClient *http.Client) *retryablehttp.Client {
	transport := retryablehttp.NewClient()
	transport.HTTPClient = httpClient
	transport.Logger = nil
	transport.RetryMax = 0
	transport.CheckRetry = func(context.Context, *http.Response, error) (bool, error) {
		return false, nil
	}
	transport.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return transport
}

// BaseURL returns the versioned service root.
func (c *Client) BaseURL() string {
	if c.apiVersion == "" {
		return c.baseURL
	}

	return c.baseURL + "/" + c.apiVersion
}

// MaxAttempts returns the per-call attempt budget.
func (c *Client) MaxAttempts() int {
	return c.maxAttempts
}

// MaxPages returns the default page cap.
func (c *Client) MaxPages() int {
	return c.maxPages
}

// Do executes one logical call: pace, dispatch, classify, and retry until
// success or a terminal failure. Failures are *dirapi.RequestError values.
func (c *Client) Do(ctx context.Context, req *dirapi.Request) (*dirapi.Response, error) {
	call := &call{
		request:   req,
		requestID: uuid.NewString(),
		retry:     retryState{attempt: 1, maxAttempts: c.maxAttempts},
	}

	state := stateInit

	for {
		switch state {
		case stateInit:
			err := c.prepare(call)
			if err != nil {
				call.last = outcome{kind: outcomeInvalid, err: err}
				state = stateFatal

				continue
			}

			state = stateDispatching

		case stateDispatching:
			call.last = c.attempt(ctx, call)
			state = nextState(call.last.kind, call.retry, retryPolicy{retryOn401: c.retryOn401})

		case stateAuthRetry, stateThrottleRetry:
			wait := backoff(state, call.retry.attempt)

			c.logger.Warn("Retrying request", map[string]interface{}{
				"method":     call.method,
				"url":        call.target,
				"status":     call.last.statusCode,
				"state":      state.String(),
				"attempt":    call.retry.attempt,
				"max":        call.retry.maxAttempts,
				"wait":       wait.String(),
				"request_id": call.requestID,
			})

			err := c.clock.Sleep(ctx, wait)
			if err != nil {
				call.last = outcome{kind: outcomeCanceled, err: err, statusCode: call.last.statusCode}
				state = stateFatal

				continue
			}

			call.retry.attempt++
			state = stateDispatching

		case stateSuccess:
			response := call.last.response
			response.Attempts = call.retry.attempt

			return response, nil

		case stateFatal:
			return nil, c.fail(call)
		}
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*dirapi.Response, error) {
	return c.Do(ctx, &dirapi.Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*dirapi.Response, error) {
	return c.Do(ctx, &dirapi.Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*dirapi.Response, error) {
	return c.Do(ctx, &dirapi.Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*dirapi.Response, error) {
	return c.Do(ctx, &dirapi.Request{Method: http.MethodDelete, Path: path})
}

// call carries the state of one logical call across attempts.
type call struct {
	request   *dirapi.Request
	requestID string
	method    string
	target    string
	body      []byte
	retry     retryState
	last      outcome
	// dispatched counts requests actually sent.
	dispatched int
}

func (c *Client) prepare(call *call) error {
	req := call.request
	if req == nil {
		return dirapi.ErrConfigRequired
	}

	call.method = strings.ToUpper(strings.TrimSpace(req.Method))

	switch call.method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return fmt.Errorf("%w: %q", dirapi.ErrUnsupportedMethod, req.Method)
	}

	target, err := c.buildURL(req)
	if err != nil {
		return err
	}

	call.target = target

	switch body := req.Body.(type) {
	case nil:
	case []byte:
		call.body = body
	case json.RawMessage:
		call.body = body
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		call.body = encoded
	}

	return nil
}

func (c *Client) buildURL(req *dirapi.Request) (string, error) {
	if req.URL != "" {
		parsed, err := url.Parse(req.URL)
		if err != nil || !parsed.IsAbs() {
			return "", fmt.Errorf("invalid request URL %q: %w", req.URL, dirapi.ErrFatalHTTP)
		}

		err = c.checkServiceURL(parsed)
		if err != nil {
			return "", err
		}

		if len(req.Query) > 0 {
			merged := parsed.Query()

			for key, values := range req.Query {
				for _, value := range values {
					merged.Add(key, value)
				}
			}

			parsed.RawQuery = merged.Encode()
		}

		return parsed.String(), nil
	}

	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := c.BaseURL() + path

	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	return target, nil
}

// checkServiceURL rejects absolute URLs the secret must not be sent to.
func (c *Client) checkServiceURL(target *url.URL) error {
	if target.Scheme != "http" && target.Scheme != "https" {
		return fmt.Errorf("%w: %q", dirapi.ErrUnsupportedScheme, target.Scheme)
	}

	if c.host != "" && !strings.EqualFold(target.Host, c.host) {
		return fmt.Errorf("%w: %s", dirapi.ErrForeignHost, target.Host)
	}

	return nil
}

// attempt performs one paced physical request and classifies the result.
func (c *Client) attempt(ctx context.Context, call *call) outcome {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return outcome{kind: outcomeCanceled, err: err}
	}

	var rawBody interface{}
	if call.body != nil {
		rawBody = call.body
	}

	request, err := retryablehttp.NewRequestWithContext(ctx, call.method, call.target, rawBody)
	if err != nil {
		return outcome{kind: outcomeInvalid, err: fmt.Errorf("creating request: %w", err)}
	}

	c.setHeaders(request, call)

	c.logger.Debug("HTTP Request", map[string]interface{}{
		"method":     call.method,
		"url":        call.target,
		"attempt":    call.retry.attempt,
		"request_id": call.requestID,
	})

	started := c.clock.Now()
	call.dispatched++

	resp, err := c.transport.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{kind: outcomeCanceled, err: ctx.Err()}
		}

		return outcome{kind: outcomeNetwork, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return outcome{kind: outcomeCanceled, err: ctx.Err(), statusCode: resp.StatusCode}
		}

		return outcome{kind: outcomeNetwork, err: fmt.Errorf("reading response body: %w", err), statusCode: resp.StatusCode}
	}

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":     call.method,
		"url":        call.target,
		"status":     resp.StatusCode,
		"duration":   c.clock.Now().Sub(started).String(),
		"request_id": call.requestID,
	})

	return classify(resp, body, call)
}

func (c *Client) setHeaders(request *retryablehttp.Request, call *call) {
	request.Header.Set("Accept", constants.ContentTypeJSON)
	request.Header.Set("User-Agent", c.userAgent)
	request.Header.Set(constants.RequestIDHeader, call.requestID)

	if call.body != nil {
		request.Header.Set("Content-Type", constants.ContentTypeJSON)
	}

	if c.secret != "" {
		value := c.secret
		if c.tokenPrefix != "" {
			value = c.tokenPrefix + " " + c.secret
		}

		request.Header.Set(c.tokenHeader, value)
	}

	for key, value := range call.request.Headers {
		request.Header.Set(key, value)
	}
}

// classify maps a completed HTTP exchange to an outcome.
func classify(resp *http.Response, body []byte, call *call) outcome {
	status := resp.StatusCode

	switch {
	case status >= 200 && status < 300:
		items, err := decodeItems(body)
		if err != nil {
			return outcome{kind: outcomeUndecodable, statusCode: status, err: err}
		}

		return outcome{
			kind:       outcomeSuccess,
			statusCode: status,
			response: &dirapi.Response{
				StatusCode: status,
				Header:     resp.Header,
				Body:       body,
				URL:        call.target,
				RequestID:  call.requestID,
				Items:      items,
			},
		}

	case status == http.StatusUnauthorized:
		return outcome{kind: outcomeUnauthorized, statusCode: status, apiError: dirapi.ParseAPIError(body)}

	case status == http.StatusTooManyRequests || status >= 500:
		return outcome{kind: outcomeThrottled, statusCode: status, apiError: dirapi.ParseAPIError(body)}

	default:
		return outcome{kind: outcomeRejected, statusCode: status, apiError: dirapi.ParseAPIError(body)}
	}
}

// decodeItems splits a JSON body into items: one per array element, or the
// whole object as a single item.
func decodeItems(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage

		err := json.Unmarshal(trimmed, &items)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dirapi.ErrUndecodableBody, err)
		}

		return items, nil

	case '{':
		if !json.Valid(trimmed) {
			return nil, dirapi.ErrUndecodableBody
		}

		return []json.RawMessage{json.RawMessage(trimmed)}, nil

	default:
		return nil, dirapi.ErrUndecodableBody
	}
}

// fail builds the terminal error for a call and logs it.
func (c *Client) fail(call *call) error {
	last := call.last
	attempts := call.dispatched

	reqErr := &dirapi.RequestError{
		Kind:       errorKind(last.kind),
		Method:     call.method,
		URL:        call.target,
		StatusCode: last.statusCode,
		Attempts:   attempts,
		APIError:   last.apiError,
		Err:        last.err,
	}

	fields := map[string]interface{}{
		"method":     call.method,
		"url":        call.target,
		"status":     last.statusCode,
		"attempts":   attempts,
		"request_id": call.requestID,
		"error":      reqErr.Error(),
	}

	switch last.kind {
	case outcomeCanceled:
		c.logger.Warn("Request canceled", fields)
	case outcomeThrottled:
		c.logger.Error("Retry budget exhausted", fields)
	default:
		c.logger.Error("Request failed", fields)
	}

	return reqErr
}
