package dirapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fivetwenty-io/dirapi/internal/constants"
)

// Config represents client configuration for building a dirapi.Client.
//
// # Secret resolution
//
// The API secret is resolved once, at construction, in this order:
//  1. the environment variable named by Auth.TokenEnv (default DIRAPI_API_TOKEN);
//  2. the secret store declared by Auth.SecureStorage, when the lookup succeeds;
//  3. Auth.Token, a literal intended for development only.
//
// Placeholder values such as "YOUR_API_TOKEN_HERE" count as absent. If no tier
// yields a value the client is not built and ErrAuthResolution is returned.
//
// # Retries and pacing
//
// MaxRetries is the total number of physical attempts per logical call.
// RateLimitPerMinute bounds dispatches per fixed 60 second window.
type Config struct {
	// BaseURL is the service root, for example "https://example.okta.com/api".
	// A trailing slash is trimmed.
	BaseURL string `mapstructure:"baseUrl" yaml:"baseUrl"`
	// APIVersion is inserted between BaseURL and request paths. Default "v1".
	APIVersion string `mapstructure:"apiVersion" yaml:"apiVersion"`

	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	MaxRetries         int `mapstructure:"maxRetries"         yaml:"maxRetries"`
	RateLimitPerMinute int `mapstructure:"rateLimitPerMinute" yaml:"rateLimitPerMinute"`

	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"   yaml:"timeouts"`
	Pagination PaginationConfig `mapstructure:"pagination" yaml:"pagination"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`

	// Endpoints maps template names to paths. Placeholders use {name} syntax.
	// Keys are matched case-insensitively.
	Endpoints map[string]string `mapstructure:"endpoints" yaml:"endpoints"`

	UserAgent string `mapstructure:"userAgent" yaml:"userAgent,omitempty"`
}

// AuthConfig configures the credential header and secret resolution.
type AuthConfig struct {
	TokenHeader string `mapstructure:"tokenHeader" yaml:"tokenHeader"`
	// TokenPrefix precedes the secret in the header value. Empty sends the
	// bare secret; the file loader defaults it to "SSWS".
	TokenPrefix string `mapstructure:"tokenPrefix" yaml:"tokenPrefix"`
	// SecureStorage selects the secret-store tier: none, nats, or command.
	SecureStorage string `mapstructure:"secureStorage" yaml:"secureStorage"`
	// KeyVaultName is the store location: the KV bucket for nats, the first
	// argument for command.
	KeyVaultName string   `mapstructure:"keyVaultName" yaml:"keyVaultName,omitempty"`
	StoreURL     string   `mapstructure:"storeUrl"     yaml:"storeUrl,omitempty"`
	StoreCommand string   `mapstructure:"storeCommand" yaml:"storeCommand,omitempty"`
	StoreArgs    []string `mapstructure:"storeArgs"    yaml:"storeArgs,omitempty"`
	SecretName   string   `mapstructure:"secretName"   yaml:"secretName,omitempty"`
	// StoreTimeout bounds one secret-store lookup, for example "5s".
	StoreTimeout time.Duration `mapstructure:"storeTimeout" yaml:"storeTimeout,omitempty"`
	TokenEnv     string        `mapstructure:"tokenEnv"     yaml:"tokenEnv,omitempty"`
	// Token is a development-only literal secret.
	Token      string `mapstructure:"token"      yaml:"token,omitempty"`
	RetryOn401 bool   `mapstructure:"retryOn401" yaml:"retryOn401"`
}

// TimeoutsConfig configures per-attempt timeouts.
type TimeoutsConfig struct {
	ReadTimeoutSeconds int `mapstructure:"readTimeoutSeconds" yaml:"readTimeoutSeconds"`
}

// PaginationConfig configures list collection.
type PaginationConfig struct {
	// MaxPages caps pages per list call. Zero means unlimited.
	MaxPages int `mapstructure:"maxPages" yaml:"maxPages"`
}

// LoggingConfig configures the log sink.
type LoggingConfig struct {
	Enabled  bool   `mapstructure:"enabled"  yaml:"enabled"`
	LogLevel string `mapstructure:"logLevel" yaml:"logLevel"`
	// LogFile is the output path. Empty writes to stderr.
	LogFile string `mapstructure:"logFile" yaml:"logFile,omitempty"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")

	if c.APIVersion == "" {
		c.APIVersion = constants.DefaultAPIVersion
	}

	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = constants.DefaultTokenHeader
	}

	if c.Auth.SecureStorage == "" {
		c.Auth.SecureStorage = constants.SecureStorageNone
	}

	c.Auth.SecureStorage = strings.ToLower(strings.TrimSpace(c.Auth.SecureStorage))

	if c.Auth.SecretName == "" {
		c.Auth.SecretName = constants.DefaultSecretName
	}

	if c.Auth.StoreTimeout <= 0 {
		c.Auth.StoreTimeout = constants.DefaultSecretStoreTimeout
	}

	if c.Auth.TokenEnv == "" {
		c.Auth.TokenEnv = constants.EnvAPIToken
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = constants.DefaultMaxRetries
	}

	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = constants.DefaultRateLimitPerMinute
	}

	if c.Timeouts.ReadTimeoutSeconds == 0 {
		c.Timeouts.ReadTimeoutSeconds = constants.DefaultReadTimeoutSeconds
	}

	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = constants.LogLevelInfo
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}

	endpoints := make(map[string]string, len(constants.DefaultEndpoints)+len(c.Endpoints))
	for name, path := range constants.DefaultEndpoints {
		endpoints[strings.ToLower(name)] = path
	}

	for name, path := range c.Endpoints {
		endpoints[strings.ToLower(name)] = path
	}

	c.Endpoints = endpoints
}

// Validate reports every invalid field at once. The returned error is a
// *ConfigError, or nil.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.BaseURL == "" {
		result = multierror.Append(result, ErrBaseURLRequired)
	} else {
		parsed, err := url.Parse(c.BaseURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			result = multierror.Append(result, fmt.Errorf("%w: %q", constants.ErrInvalidBaseURL, c.BaseURL))
		}
	}

	if c.RateLimitPerMinute < 1 {
		result = multierror.Append(result, fmt.Errorf("%w: got %d", constants.ErrInvalidRateLimit, c.RateLimitPerMinute))
	}

	if c.MaxRetries < 1 {
		result = multierror.Append(result, fmt.Errorf("%w: got %d", constants.ErrInvalidMaxRetries, c.MaxRetries))
	}

	if c.Timeouts.ReadTimeoutSeconds < 1 {
		result = multierror.Append(result, fmt.Errorf("%w: got %d", constants.ErrInvalidReadTimeout, c.Timeouts.ReadTimeoutSeconds))
	}

	if c.Pagination.MaxPages < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: got %d", constants.ErrInvalidMaxPages, c.Pagination.MaxPages))
	}

	if strings.TrimSpace(c.Auth.TokenHeader) == "" {
		result = multierror.Append(result, constants.ErrTokenHeaderRequired)
	}

	switch c.Auth.SecureStorage {
	case constants.SecureStorageNone:
	case constants.SecureStorageNATS:
		if c.Auth.StoreURL == "" {
			result = multierror.Append(result, constants.ErrStoreURLRequired)
		}
	case constants.SecureStorageCommand:
		if c.Auth.StoreCommand == "" {
			result = multierror.Append(result, constants.ErrStoreCommandRequired)
		}
	default:
		result = multierror.Append(result, fmt.Errorf("%w: %q", ErrUnknownSecureStorage, c.Auth.SecureStorage))
	}

	if _, ok := ParseLogLevel(c.Logging.LogLevel); !ok {
		result = multierror.Append(result, fmt.Errorf("%w: got %q", constants.ErrInvalidLogLevel, c.Logging.LogLevel))
	}

	if result == nil {
		return nil
	}

	return &ConfigError{Err: result.ErrorOrNil()}
}

// ReadTimeout returns the per-attempt timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.ReadTimeoutSeconds) * time.Second
}

// Endpoint returns the path template registered under name.
func (c *Config) Endpoint(name string) (string, error) {
	path, ok := c.Endpoints[strings.ToLower(name)]
	if !ok {
		path, ok = constants.DefaultEndpoints[name]
	}

	if !ok || path == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}

	return path, nil
}

// Masked returns a copy safe to print: the literal token is replaced.
func (c Config) Masked() Config {
	if c.Auth.Token != "" {
		c.Auth.Token = constants.MaskedSecret
	}

	endpoints := make(map[string]string, len(c.Endpoints))
	for name, path := range c.Endpoints {
		endpoints[name] = path
	}

	c.Endpoints = endpoints

	return c
}

// ParseLogLevel normalizes a level name (Debug, Info, Warn, Error; any case).
func ParseLogLevel(level string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case constants.LogLevelDebug:
		return constants.LogLevelDebug, true
	case constants.LogLevelInfo, "":
		return constants.LogLevelInfo, true
	case constants.LogLevelWarn, "warning":
		return constants.LogLevelWarn, true
	case constants.LogLevelError:
		return constants.LogLevelError, true
	default:
		return "", false
	}
}
