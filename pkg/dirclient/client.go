package dirclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/dirapi/internal/auth"
	"github.com/fivetwenty-io/dirapi/internal/client"
	"github.com/fivetwenty-io/dirapi/internal/clock"
	"github.com/fivetwenty-io/dirapi/internal/config"
	"github.com/fivetwenty-io/dirapi/internal/constants"
	internalhttp "github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/internal/logging"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// Clock supplies time to the rate limiter and to retry backoff.
type Clock = clock.Clock

// Limiter paces dispatches.
type Limiter = internalhttp.Limiter

// SecretStore looks up the API secret in an external store.
type SecretStore = auth.SecretStore

type options struct {
	logger     dirapi.Logger
	store      auth.SecretStore
	envLookup  auth.EnvLookup
	httpClient *http.Client
	clock      clock.Clock
	limiter    internalhttp.Limiter
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger. Without it a logger is built from cfg.Logging.
func WithLogger(logger dirapi.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSecretStore replaces the store declared by cfg.Auth.SecureStorage.
func WithSecretStore(store SecretStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithEnvLookup replaces os.LookupEnv during secret resolution.
func WithEnvLookup(lookup func(key string) (string, bool)) Option {
	return func(o *options) {
		o.envLookup = lookup
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithClock sets the clock used for pacing and backoff.
func WithClock(clk Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithLimiter replaces the fixed-window limiter built from
// cfg.RateLimitPerMinute.
func WithLimiter(limiter Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

// New creates a directory API client. cfg is defaulted and validated in
// place. The API secret is resolved before New returns; a config with no
// usable secret fails with an error matching dirapi.ErrAuthResolution.
func New(ctx context.Context, cfg *dirapi.Config, opts ...Option) (dirapi.Client, error) {
	if cfg == nil {
		return nil, dirapi.ErrConfigRequired
	}

	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		built, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}

		logger = built
	}

	resolverOptions := []auth.ResolverOption{auth.WithLogger(logger), auth.WithEnvLookup(o.envLookup)}
	if o.store != nil {
		resolverOptions = append(resolverOptions, auth.WithStore(o.store))
	}

	resolution, err := auth.NewResolver(cfg.Auth, resolverOptions...).Resolve(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("Directory client ready", map[string]interface{}{
		"base_url":      cfg.BaseURL,
		"secret_source": resolution.Source,
		"rate_limit":    cfg.RateLimitPerMinute,
		"max_retries":   cfg.MaxRetries,
	})

	httpOptions := []internalhttp.Option{
		internalhttp.WithLogger(logger),
		internalhttp.WithAPIVersion(cfg.APIVersion),
		internalhttp.WithAuthHeader(cfg.Auth.TokenHeader, cfg.Auth.TokenPrefix),
		internalhttp.WithUserAgent(cfg.UserAgent),
		internalhttp.WithMaxRetries(cfg.MaxRetries),
		internalhttp.WithRetryOn401(cfg.Auth.RetryOn401),
		internalhttp.WithRateLimit(cfg.RateLimitPerMinute),
		internalhttp.WithReadTimeout(cfg.ReadTimeout()),
		internalhttp.WithMaxPages(cfg.Pagination.MaxPages),
		internalhttp.WithHTTPClient(o.httpClient),
	}

	if o.clock != nil {
		httpOptions = append(httpOptions, internalhttp.WithClock(o.clock))
	}

	if o.limiter != nil {
		httpOptions = append(httpOptions, internalhttp.WithLimiter(o.limiter))
	}

	executor := internalhttp.NewClient(cfg.BaseURL, resolution.Secret, httpOptions...)

	return client.New(cfg, executor, resolution.Source), nil
}

// NewFromFile loads the configuration at path and creates a client from it.
func NewFromFile(ctx context.Context, path string, opts ...Option) (dirapi.Client, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	return New(ctx, cfg, opts...)
}

// NewWithToken creates a client for baseURL authenticating with token. The
// token takes the place of the config-literal tier, so DIRAPI_API_TOKEN
// still wins when set.
func NewWithToken(ctx context.Context, baseURL, token string, opts ...Option) (dirapi.Client, error) {
	cfg := &dirapi.Config{
		BaseURL: baseURL,
		Auth: dirapi.AuthConfig{
			TokenPrefix: constants.DefaultTokenPrefix,
			Token:       token,
		},
	}

	return New(ctx, cfg, opts...)
}
