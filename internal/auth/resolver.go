// Package auth resolves the API secret from the environment, an external
// secret store, or the configuration file, in that order.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/internal/logging"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// Resolution is a resolved secret and the tier that produced it.
type Resolution struct {
	Secret string
	// Source is one of constants.SecretSourceEnv, SecretSourceStore or
	// SecretSourceConfig.
	Source string
	// Detail names the variable, store entry, or config key used.
	Detail string
}

// EnvLookup reads an environment variable.
type EnvLookup func(key string) (string, bool)

// Resolver resolves the API secret once per client construction.
type Resolver struct {
	auth      dirapi.AuthConfig
	store     SecretStore
	lookupEnv EnvLookup
	logger    dirapi.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStore sets the secret store instead of building it from configuration.
func WithStore(store SecretStore) ResolverOption {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithEnvLookup replaces os.LookupEnv.
func WithEnvLookup(lookup EnvLookup) ResolverOption {
	return func(r *Resolver) {
		if lookup != nil {
			r.lookupEnv = lookup
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger dirapi.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logging.OrNop(logger)
	}
}

// NewResolver creates a resolver for the given auth configuration.
func NewResolver(auth dirapi.AuthConfig, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		auth:      auth,
		lookupEnv: os.LookupEnv,
		logger:    logging.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the first usable secret. Blank and placeholder values count
// as absent. When every tier comes up empty it returns a
// *dirapi.AuthResolutionError listing what was tried.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	var tried []string

	envName := r.auth.TokenEnv
	if envName == "" {
		envName = constants.EnvAPIToken
	}

	value, _ := r.lookupEnv(envName)

	switch {
	case IsPlaceholder(value):
		tried = append(tried, fmt.Sprintf("env %s: placeholder value", envName))
	case strings.TrimSpace(value) != "":
		r.logger.Debug("Resolved API secret", map[string]interface{}{"source": constants.SecretSourceEnv, "variable": envName})

		return Resolution{Secret: strings.TrimSpace(value), Source: constants.SecretSourceEnv, Detail: envName}, nil
	default:
		tried = append(tried, fmt.Sprintf("env %s: not set", envName))
	}

	resolution, reason, ok := r.fromStore(ctx)
	if ok {
		return resolution, nil
	}

	if reason != "" {
		tried = append(tried, reason)
	}

	if ctx.Err() != nil {
		return Resolution{}, fmt.Errorf("resolving API secret: %w", ctx.Err())
	}

	literal := strings.TrimSpace(r.auth.Token)

	switch {
	case IsPlaceholder(literal):
		tried = append(tried, "config auth.token: placeholder value")
	case literal != "":
		r.logger.Warn("Using API secret from config file; prefer the environment or a secret store", map[string]interface{}{
			"source": constants.SecretSourceConfig,
		})

		return Resolution{Secret: literal, Source: constants.SecretSourceConfig, Detail: "auth.token"}, nil
	default:
		tried = append(tried, "config auth.token: not set")
	}

	return Resolution{}, &dirapi.AuthResolutionError{Tried: tried}
}

// fromStore consults the declared secret store. It reports the reason the
// tier was skipped, or "" when no store is declared.
func (r *Resolver) fromStore(ctx context.Context) (Resolution, string, bool) {
	store := r.store

	if store == nil {
		built, err := NewStoreFromConfig(&r.auth)
		if err != nil {
			r.logger.Warn("Secret store unavailable", map[string]interface{}{"error": err})

			return Resolution{}, fmt.Sprintf("store %s: %v", r.auth.SecureStorage, err), false
		}

		if built == nil {
			return Resolution{}, "", false
		}

		store = built
	}

	name := r.auth.SecretName
	if override, ok := r.lookupEnv(constants.EnvSecretName); ok && strings.TrimSpace(override) != "" {
		name = strings.TrimSpace(override)
	}

	if name == "" {
		name = constants.DefaultSecretName
	}

	location := r.auth.KeyVaultName
	if override, ok := r.lookupEnv(constants.EnvSecretStore); ok && strings.TrimSpace(override) != "" {
		location = strings.TrimSpace(override)
	}

	entry := name
	if location != "" {
		entry = location + "/" + name
	}

	value, err := store.Lookup(ctx, location, name)
	if err != nil {
		level := r.logger.Warn
		if errors.Is(err, constants.ErrSecretNotFound) {
			level = r.logger.Info
		}

		level("Secret store lookup failed, falling back", map[string]interface{}{
			"store": store.Name(),
			"entry": entry,
			"error": err,
		})

		return Resolution{}, fmt.Sprintf("store %s %s: %v", store.Name(), entry, err), false
	}

	if IsPlaceholder(value) || strings.TrimSpace(value) == "" {
		r.logger.Warn("Secret store returned a placeholder, falling back", map[string]interface{}{
			"store": store.Name(),
			"entry": entry,
		})

		return Resolution{}, fmt.Sprintf("store %s %s: placeholder value", store.Name(), entry), false
	}

	r.logger.Debug("Resolved API secret", map[string]interface{}{
		"source": constants.SecretSourceStore,
		"store":  store.Name(),
		"entry":  entry,
	})

	return Resolution{
		Secret: strings.TrimSpace(value),
		Source: constants.SecretSourceStore,
		Detail: store.Name() + ":" + entry,
	}, "", true
}

// IsPlaceholder reports whether value is a known sample-config placeholder.
func IsPlaceholder(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}

	for _, placeholder := range constants.PlaceholderSecrets {
		if strings.EqualFold(trimmed, placeholder) {
			return true
		}
	}

	return false
}

// Mask returns a display form of a secret that reveals at most its last four
// characters.
func Mask(secret string) string {
	const visible = 4

	if len(secret) <= visible*2 {
		return constants.MaskedSecret
	}

	return constants.MaskedSecret + secret[len(secret)-visible:]
}
