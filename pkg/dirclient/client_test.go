package dirclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fivetwenty-io/dirapi/internal/clock"
	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/internal/logging"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
	"github.com/fivetwenty-io/dirapi/pkg/dirclient"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	value string
	err   error
	calls atomic.Int32
}

func (s *fakeStore) Name() string {
	return "fake"
}

func (s *fakeStore) Lookup(_ context.Context, _, _ string) (string, error) {
	s.calls.Add(1)

	return s.value, s.err
}

func envOf(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]

		return value, ok
	}
}

func newObservedLogger() (*logging.ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)

	return logging.NewZapLogger(zap.New(core)), logs
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		client, err := dirclient.New(context.Background(), nil)
		require.ErrorIs(t, err, dirapi.ErrConfigRequired)
		assert.Nil(t, client)
	})

	t.Run("invalid config reports every field", func(t *testing.T) {
		t.Parallel()

		_, err := dirclient.New(context.Background(), &dirapi.Config{
			BaseURL:            "example.com",
			RateLimitPerMinute: -1,
			MaxRetries:         -2,
		})
		require.ErrorIs(t, err, dirapi.ErrConfig)
		require.ErrorIs(t, err, constants.ErrInvalidBaseURL)
		require.ErrorIs(t, err, constants.ErrInvalidRateLimit)
		require.ErrorIs(t, err, constants.ErrInvalidMaxRetries)
	})

	t.Run("no usable secret", func(t *testing.T) {
		t.Parallel()

		_, err := dirclient.New(context.Background(),
			&dirapi.Config{BaseURL: "https://example.com/api", Auth: dirapi.AuthConfig{Token: "YOUR_API_TOKEN_HERE"}},
			dirclient.WithEnvLookup(envOf(nil)),
			dirclient.WithLogger(logging.NewNop()),
		)
		require.ErrorIs(t, err, dirapi.ErrAuthResolution)
		assert.Contains(t, err.Error(), "placeholder")
	})
}

//nolint:funlen
func TestNew_SecretPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        map[string]string
		store      *fakeStore
		token      string
		wantHeader string
		wantSource string
	}{
		{
			name:       "environment wins",
			env:        map[string]string{constants.EnvAPIToken: "env-secret"},
			store:      &fakeStore{value: "store-secret"},
			token:      "config-secret",
			wantHeader: "SSWS env-secret",
			wantSource: constants.SecretSourceEnv,
		},
		{
			name:       "store before config",
			store:      &fakeStore{value: "store-secret"},
			token:      "config-secret",
			wantHeader: "SSWS store-secret",
			wantSource: constants.SecretSourceStore,
		},
		{
			name:       "failing store falls back to config",
			store:      &fakeStore{err: errStoreDown},
			token:      "config-secret",
			wantHeader: "SSWS config-secret",
			wantSource: constants.SecretSourceConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var header atomic.Value

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				header.Store(request.Header.Get("Authorization"))
				_, _ = writer.Write([]byte(`{"id":"00u1","status":"ACTIVE","profile":{"login":"a@example.com"}}`))
			}))
			defer server.Close()

			client, err := dirclient.New(context.Background(),
				&dirapi.Config{
					BaseURL: server.URL + "/api",
					Auth: dirapi.AuthConfig{
						TokenPrefix: "SSWS",
						Token:       tt.token,
					},
				},
				dirclient.WithEnvLookup(envOf(tt.env)),
				dirclient.WithSecretStore(tt.store),
				dirclient.WithLogger(logging.NewNop()),
			)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, client.SecretSource())

			user, err := client.Users().Get(context.Background(), "00u1")
			require.NoError(t, err)
			assert.Equal(t, "a@example.com", user.Profile.Login)
			assert.Equal(t, tt.wantHeader, header.Load())
		})
	}
}

func TestNew_ConfigLiteralWarns(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger()

	client, err := dirclient.NewWithToken(context.Background(), "https://example.com/api", "literal-secret",
		dirclient.WithEnvLookup(envOf(nil)),
		dirclient.WithLogger(logger),
	)
	require.NoError(t, err)
	assert.Equal(t, constants.SecretSourceConfig, client.SecretSource())

	warnings := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "config file")
}

//nolint:funlen
func TestNew_EndToEndPolicy(t *testing.T) {
	t.Parallel()

	t.Run("throttled call retries with backoff", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				writer.WriteHeader(http.StatusTooManyRequests)

				return
			}

			_, _ = writer.Write([]byte(`[]`))
		}))
		defer server.Close()

		fake := clock.NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

		client, err := dirclient.New(context.Background(),
			&dirapi.Config{BaseURL: server.URL, MaxRetries: 3},
			dirclient.WithEnvLookup(envOf(map[string]string{constants.EnvAPIToken: "secret"})),
			dirclient.WithClock(fake),
			dirclient.WithLogger(logging.NewNop()),
		)
		require.NoError(t, err)

		groups, err := client.Groups().List(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, groups)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, fake.Sleeps())
	})

	t.Run("rate limit paces dispatches", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		fake := clock.NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

		client, err := dirclient.New(context.Background(),
			&dirapi.Config{BaseURL: server.URL, RateLimitPerMinute: 2},
			dirclient.WithEnvLookup(envOf(map[string]string{constants.EnvAPIToken: "secret"})),
			dirclient.WithClock(fake),
			dirclient.WithLogger(logging.NewNop()),
		)
		require.NoError(t, err)

		for range 3 {
			_, err = client.Raw().Do(context.Background(), &dirapi.Request{Method: "GET", Path: "/ping"})
			require.NoError(t, err)
		}

		assert.Equal(t, []time.Duration{60 * time.Second}, fake.Sleeps())
	})

	t.Run("exhausted retries are transient", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := dirclient.New(context.Background(),
			&dirapi.Config{BaseURL: server.URL, MaxRetries: 2},
			dirclient.WithEnvLookup(envOf(map[string]string{constants.EnvAPIToken: "secret"})),
			dirclient.WithClock(clock.NewFake(time.Now())),
			dirclient.WithLogger(logging.NewNop()),
		)
		require.NoError(t, err)

		_, err = client.Users().Get(context.Background(), "00u1")
		require.ErrorIs(t, err, dirapi.ErrTransientHTTP)
		assert.True(t, dirapi.IsTransient(err))
	})
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/api/v1/logs", request.URL.Path)
		assert.Equal(t, "SSWS file-secret", request.Header.Get("Authorization"))
		_, _ = writer.Write([]byte(`[{"uuid":"e1","eventType":"user.session.start","severity":"INFO","published":"2024-05-01T09:00:00Z"}]`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "dirapi.yaml")
	content := "baseUrl: " + server.URL + "/api\n" +
		"auth:\n" +
		"  tokenEnv: DIRAPI_TEST_UNSET_TOKEN_VAR\n" +
		"  token: file-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	client, err := dirclient.NewFromFile(context.Background(), path,
		dirclient.WithEnvLookup(envOf(nil)),
		dirclient.WithLogger(logging.NewNop()),
	)
	require.NoError(t, err)

	events, err := client.AuditEvents().List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].UUID)
}
