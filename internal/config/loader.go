// Package config loads and validates client configuration from files and
// DIRAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// EnvPrefix is prepended to configuration keys read from the environment,
// with dots replaced by underscores: DIRAPI_BASEURL, DIRAPI_AUTH_RETRYON401.
const EnvPrefix = "DIRAPI"

// SetDefaults registers every configuration key with its default so that
// environment-only values are visible to Load.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("baseUrl", "")
	v.SetDefault("apiVersion", constants.DefaultAPIVersion)
	v.SetDefault("userAgent", constants.DefaultUserAgent)

	v.SetDefault("auth.tokenHeader", constants.DefaultTokenHeader)
	v.SetDefault("auth.tokenPrefix", constants.DefaultTokenPrefix)
	v.SetDefault("auth.secureStorage", constants.SecureStorageNone)
	v.SetDefault("auth.keyVaultName", "")
	v.SetDefault("auth.storeUrl", "")
	v.SetDefault("auth.storeCommand", "")
	v.SetDefault("auth.storeArgs", []string{})
	v.SetDefault("auth.storeTimeout", constants.DefaultSecretStoreTimeout.String())
	v.SetDefault("auth.secretName", constants.DefaultSecretName)
	v.SetDefault("auth.tokenEnv", constants.EnvAPIToken)
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.retryOn401", false)

	v.SetDefault("maxRetries", constants.DefaultMaxRetries)
	v.SetDefault("rateLimitPerMinute", constants.DefaultRateLimitPerMinute)
	v.SetDefault("timeouts.readTimeoutSeconds", constants.DefaultReadTimeoutSeconds)
	v.SetDefault("pagination.maxPages", 0)

	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.logLevel", constants.LogLevelInfo)
	v.SetDefault("logging.logFile", "")
}

// Load reads the configuration file set on v, if any, overlays DIRAPI_*
// environment variables, and returns a validated configuration. Every
// failure is a *dirapi.ConfigError.
func Load(v *viper.Viper) (*dirapi.Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &dirapi.ConfigError{
				Err: fmt.Errorf("%w: %s: %w", constants.ErrConfigFileUnreadable, v.ConfigFileUsed(), err),
			}
		}
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, &dirapi.ConfigError{Err: err}
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads configuration from path plus the environment.
func LoadFile(path string) (*dirapi.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return Load(v)
}

func decode(settings map[string]interface{}) (*dirapi.Config, error) {
	cfg := &dirapi.Config{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	err = decoder.Decode(settings)
	if err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	return cfg, nil
}
