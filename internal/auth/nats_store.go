package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/dirapi/internal/constants"
)

// NATSStoreConfig configures a NATS JetStream key-value secret store.
type NATSStoreConfig struct {
	// URL is the NATS server URL, for example "nats://127.0.0.1:4222".
	URL string
	// ClientName is reported to the server. Default "dirapi-secret-store".
	ClientName string
	// Timeout bounds connecting and reading. Default 5s.
	Timeout time.Duration
	// Options are passed to nats.Connect after the defaults.
	Options []nats.Option
}

// NATSStore reads secrets from a JetStream KV bucket. The store location is
// the bucket name and the secret name is the key.
type NATSStore struct {
	config NATSStoreConfig
}

// NewNATSStore creates a NATS KV backed secret store.
func NewNATSStore(config *NATSStoreConfig) *NATSStore {
	cfg := *config

	if cfg.ClientName == "" {
		cfg.ClientName = "dirapi-secret-store"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultSecretStoreTimeout
	}

	return &NATSStore{config: cfg}
}

// Name returns "nats".
func (s *NATSStore) Name() string {
	return constants.SecureStorageNATS
}

// Lookup connects, reads bucket/key, and disconnects. The secret is read once
// per client construction so no connection is kept open.
func (s *NATSStore) Lookup(ctx context.Context, location, name string) (string, error) {
	if location == "" {
		return "", constants.ErrSecretStoreLocation
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	opts := append([]nats.Option{
		nats.Name(s.config.ClientName),
		nats.Timeout(s.config.Timeout),
		nats.NoReconnect(),
	}, s.config.Options...)

	nc, err := nats.Connect(s.config.URL, opts...)
	if err != nil {
		return "", fmt.Errorf("connecting to NATS at %s: %w", s.config.URL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return "", fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, location)
	if err != nil {
		return "", fmt.Errorf("opening KV bucket %s: %w", location, err)
	}

	entry, err := kv.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return "", fmt.Errorf("%w: %s/%s", constants.ErrSecretNotFound, location, name)
		}

		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s/%s", constants.ErrSecretStoreTimedOut, location, name)
		}

		return "", fmt.Errorf("reading %s/%s: %w", location, name, err)
	}

	value := strings.TrimSpace(string(entry.Value()))
	if value == "" {
		return "", fmt.Errorf("%w: %s/%s", constants.ErrSecretStoreEmpty, location, name)
	}

	return value, nil
}
