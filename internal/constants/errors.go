package constants

import "errors"

// Configuration errors.
var (
	ErrConfigFileUnreadable = errors.New("config file could not be read")
	ErrInvalidBaseURL       = errors.New("baseUrl must be an absolute http(s) URL")
	ErrInvalidRateLimit     = errors.New("rateLimitPerMinute must be at least 1")
	ErrInvalidMaxRetries    = errors.New("maxRetries must be at least 1")
	ErrInvalidReadTimeout   = errors.New("timeouts.readTimeoutSeconds must be at least 1")
	ErrInvalidMaxPages      = errors.New("pagination.maxPages must not be negative")
	ErrInvalidLogLevel      = errors.New("logging.logLevel must be one of Debug, Info, Warn, Error")
	ErrTokenHeaderRequired  = errors.New("auth.tokenHeader is required")
	ErrStoreURLRequired     = errors.New("auth.storeUrl is required for nats secure storage")
	ErrStoreCommandRequired = errors.New("auth.storeCommand is required for command secure storage")
)

// Secret store errors.
var (
	ErrSecretNotFound      = errors.New("secret not found in store")
	ErrSecretStoreLocation = errors.New("secret store location is required")
	ErrSecretStoreEmpty    = errors.New("secret store returned an empty value")
	ErrSecretStoreTimedOut = errors.New("secret store lookup timed out")
	ErrSecretStoreCommand  = errors.New("secret store command failed")
)

// CLI errors.
var (
	ErrInvalidOutputFormat = errors.New("output format must be table, json, or yaml")
	ErrInvalidQueryParam   = errors.New("query parameter must be key=value")
)
