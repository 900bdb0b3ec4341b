package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// SecretStore looks up a named secret in an external store.
type SecretStore interface {
	// Name identifies the store kind in logs and errors.
	Name() string
	// Lookup returns the value stored under name at location. A missing
	// entry is reported as constants.ErrSecretNotFound.
	Lookup(ctx context.Context, location, name string) (string, error)
}

// NewStoreFromConfig creates the secret store declared by auth.secureStorage.
// It returns nil, nil when no store is declared.
func NewStoreFromConfig(cfg *dirapi.AuthConfig) (SecretStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.SecureStorage)) {
	case "", constants.SecureStorageNone:
		return nil, nil //nolint:nilnil

	case constants.SecureStorageNATS:
		if cfg.StoreURL == "" {
			return nil, constants.ErrStoreURLRequired
		}

		return NewNATSStore(&NATSStoreConfig{URL: cfg.StoreURL, Timeout: cfg.StoreTimeout}), nil

	case constants.SecureStorageCommand:
		if cfg.StoreCommand == "" {
			return nil, constants.ErrStoreCommandRequired
		}

		store := NewCommandStore(cfg.StoreCommand, cfg.StoreArgs)
		if cfg.StoreTimeout > 0 {
			store.Timeout = cfg.StoreTimeout
		}

		return store, nil

	default:
		return nil, fmt.Errorf("%w: %s", dirapi.ErrUnknownSecureStorage, cfg.SecureStorage)
	}
}
