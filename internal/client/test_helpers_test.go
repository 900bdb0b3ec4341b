package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dirapi/internal/clock"
	internalhttp "github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

var testEpoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// NewTestClient creates a client for an httptest server whose API lives under
// /api/v1. Backoff runs on a fake clock.
func NewTestClient(baseURL string) *Client {
	httpClient := internalhttp.NewClient(baseURL+"/api", "test-secret",
		internalhttp.WithClock(clock.NewFake(testEpoch)),
		internalhttp.WithReadTimeout(5*time.Second),
		internalhttp.WithMaxRetries(2),
	)

	return New(nil, httpClient, "env")
}

// TestGetOperation represents a generic get operation test case.
type TestGetOperation[TResponse any] struct {
	Name         string
	ID           string
	ExpectedPath string
	StatusCode   int
	Response     *TResponse
	WantErr      bool
	ErrMessage   string
}

// TestMutateOperation represents a state-changing call that returns no body.
type TestMutateOperation struct {
	Name           string
	ParentID       string
	ID             string
	ExpectedMethod string
	ExpectedPath   string
	StatusCode     int
	WantErr        bool
	ErrMessage     string
}

// RunGetTests runs a series of get operation tests.
func RunGetTests[TResponse any](
	t *testing.T,
	tests []TestGetOperation[TResponse],
	getFunc func(*Client) func(context.Context, string) (*TResponse, error),
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.ExpectedPath, request.URL.EscapedPath())
				assert.Equal(t, "GET", request.Method)
				writer.Header().Set("Content-Type", "application/json")
				writer.WriteHeader(testCase.StatusCode)

				if testCase.StatusCode >= http.StatusBadRequest {
					_ = json.NewEncoder(writer).Encode(map[string]interface{}{
						"errorCode":    "E0000007",
						"errorSummary": "Not found: Resource not found: " + testCase.ID,
						"errorId":      "oae-test",
					})
				} else if testCase.Response != nil {
					_ = json.NewEncoder(writer).Encode(testCase.Response)
				}
			}))
			defer server.Close()

			getFn := getFunc(NewTestClient(server.URL))
			result, err := getFn(context.Background(), testCase.ID)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
			}
		})
	}
}

// RunMutateTests runs a series of calls keyed by a parent and child id.
func RunMutateTests(
	t *testing.T,
	tests []TestMutateOperation,
	mutateFunc func(*Client) func(context.Context, string, string) error,
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				hits.Add(1)

				assert.Equal(t, testCase.ExpectedPath, request.URL.EscapedPath())
				assert.Equal(t, testCase.ExpectedMethod, request.Method)

				if testCase.StatusCode >= http.StatusBadRequest {
					writer.Header().Set("Content-Type", "application/json")
					writer.WriteHeader(testCase.StatusCode)
					_, _ = writer.Write([]byte(`{"errorCode":"E0000001","errorSummary":"Api validation failed"}`))

					return
				}

				writer.WriteHeader(testCase.StatusCode)
			}))
			defer server.Close()

			mutateFn := mutateFunc(NewTestClient(server.URL))
			err := mutateFn(context.Background(), testCase.ParentID, testCase.ID)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

// pagedServer serves items split into pages of pageSize, linking each page
// to the next with an absolute rel="next" link. Every request is passed to
// inspect before the page is written.
func pagedServer[T any](t *testing.T, items []T, pageSize int, inspect func(*http.Request)) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if inspect != nil {
			inspect(request)
		}

		start := 0
		if after := request.URL.Query().Get("after"); after != "" {
			var err error

			start, err = strconv.Atoi(after)
			assert.NoError(t, err)
		}

		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}

		if end < len(items) {
			next := *request.URL
			query := next.Query()
			query.Set("after", strconv.Itoa(end))
			next.RawQuery = query.Encode()
			writer.Header().Set("Link", `<http://`+request.Host+next.RequestURI()+`>; rel="next"`)
		}

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(items[start:end])
	}))
}

func testUser(id, login string) dirapi.User {
	return dirapi.User{
		ID:     id,
		Status: dirapi.UserStatusActive,
		Profile: dirapi.UserProfile{
			Login: login,
			Email: login,
		},
	}
}
