package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultReadTimeoutSeconds bounds one physical attempt.
	DefaultReadTimeoutSeconds = 30

	// DefaultSecretStoreTimeout bounds a single secret-store lookup.
	DefaultSecretStoreTimeout = 5 * time.Second
)

// Retry policy.
const (
	// DefaultMaxRetries is the default physical attempt budget per logical call.
	DefaultMaxRetries = 5

	// ExponentialBackoffBase is the base of the backoff exponent.
	ExponentialBackoffBase = 2

	// AuthRetryWaitMax caps the wait before retrying a 401.
	AuthRetryWaitMax = 30 * time.Second

	// ThrottleRetryWaitMax caps the wait before retrying a 429 or 5xx.
	ThrottleRetryWaitMax = 60 * time.Second
)

// Rate limiting.
const (
	// RateLimitWindow is the fixed window the dispatch budget applies to.
	RateLimitWindow = 60 * time.Second

	// DefaultRateLimitPerMinute is used when no limit is configured.
	DefaultRateLimitPerMinute = 60
)

// Request defaults.
const (
	// DefaultAPIVersion is the path segment inserted after the base URL.
	DefaultAPIVersion = "v1"

	// DefaultTokenHeader carries the resolved secret.
	DefaultTokenHeader = "Authorization"

	// DefaultTokenPrefix is prepended to the secret in the token header.
	DefaultTokenPrefix = "SSWS"

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "dirapi-go/1.0"

	// RequestIDHeader carries the per-call correlation id.
	RequestIDHeader = "X-Request-Id"

	// ContentTypeJSON is used for request and response bodies.
	ContentTypeJSON = "application/json"

	// LinkHeader carries continuation links.
	LinkHeader = "Link"

	// RelNext marks the continuation link.
	RelNext = "next"
)

// Secret resolution.
const (
	// EnvAPIToken is the primary out-of-band secret variable.
	EnvAPIToken = "DIRAPI_API_TOKEN"

	// EnvSecretName overrides the secret-store entry name.
	EnvSecretName = "DIRAPI_SECRET_NAME"

	// EnvSecretStore overrides the secret-store location.
	EnvSecretStore = "DIRAPI_SECRET_STORE"

	// DefaultSecretName is the secret-store entry looked up by default.
	DefaultSecretName = "api-token"

	// SecureStorageNone disables the secret-store tier.
	SecureStorageNone = "none"

	// SecureStorageNATS reads the secret from a NATS JetStream key-value bucket.
	SecureStorageNATS = "nats"

	// SecureStorageCommand reads the secret from an external helper command.
	SecureStorageCommand = "command"

	// SecretSourceEnv names the environment tier.
	SecretSourceEnv = "env"

	// SecretSourceStore names the secret-store tier.
	SecretSourceStore = "store"

	// SecretSourceConfig names the config-literal tier.
	SecretSourceConfig = "config"
)

// PlaceholderSecrets are values shipped in sample configs that never
// authenticate. Compared case-insensitively.
var PlaceholderSecrets = []string{
	"YOUR_API_TOKEN_HERE",
	"YOUR-API-TOKEN",
	"CHANGEME",
	"CHANGE_ME",
	"REPLACE_ME",
	"<token>",
	"TODO",
}

// Log levels accepted by logging.logLevel.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Endpoint template names.
const (
	EndpointUsers         = "users"
	EndpointUser          = "user"
	EndpointUserLifecycle = "userLifecycle"
	EndpointGroups        = "groups"
	EndpointGroupMembers  = "groupMembers"
	EndpointGroupMember   = "groupMember"
	EndpointAuditEvents   = "auditEvents"
)

// DefaultEndpoints are the path templates used when config omits them.
var DefaultEndpoints = map[string]string{
	EndpointUsers:         "/users",
	EndpointUser:          "/users/{userId}",
	EndpointUserLifecycle: "/users/{userId}/lifecycle/{action}",
	EndpointGroups:        "/groups",
	EndpointGroupMembers:  "/groups/{groupId}/users",
	EndpointGroupMember:   "/groups/{groupId}/users/{userId}",
	EndpointAuditEvents:   "/logs",
}

// UI and display constants.
const (
	// NotAvailable is shown for empty values.
	NotAvailable = "N/A"

	// MaskedSecret replaces secrets in output.
	MaskedSecret = "***"

	// TimestampFormat is used in table output.
	TimestampFormat = "2006-01-02 15:04:05"
)

// Format constants.
const (
	// FormatTable is the human-readable output format.
	FormatTable = "table"

	// FormatJSON is the json output format.
	FormatJSON = "json"

	// FormatYAML is the yaml output format.
	FormatYAML = "yaml"
)
