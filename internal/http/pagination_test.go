package http_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dirhttp "github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

type testUser struct {
	ID string `json:"id"`
}

// pagedHandler serves pages of two users each. Page n links to page n+1
// until lastPage; lastPage <= 0 means pages never end.
func pagedHandler(t *testing.T, lastPage int, hits *atomic.Int32, link func(r *http.Request, next int) string) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)

		page := 1
		if after := request.URL.Query().Get("after"); after != "" {
			page, _ = strconv.Atoi(after)
		}

		if lastPage <= 0 || page < lastPage {
			writer.Header().Add("Link", link(request, page+1))
		}

		_, _ = fmt.Fprintf(writer, `[{"id":"u%d-a"},{"id":"u%d-b"}]`, page, page)
	})
}

func absoluteLink(request *http.Request, next int) string {
	return fmt.Sprintf(`<http://%s/api/v1/users?after=%d&limit=2>; rel="next"`, request.Host, next)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Collect(t *testing.T) {
	t.Parallel()

	t.Run("follows next links until the last page", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 3, &hits, absoluteLink))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		users, err := dirhttp.CollectAs[testUser](context.Background(), client, &dirapi.Request{
			Method:   http.MethodGet,
			Path:     "/users",
			Paginate: true,
		})
		require.NoError(t, err)

		ids := make([]string, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}

		assert.Equal(t, []string{"u1-a", "u1-b", "u2-a", "u2-b", "u3-a", "u3-b"}, ids)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("relative links resolve against the current page", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 2, &hits, func(_ *http.Request, next int) string {
			return fmt.Sprintf(`</api/v1/users?after=%d>; rel="next", </api/v1/users>; rel="self"`, next)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})
		require.NoError(t, err)
		assert.Len(t, collection.Items, 4)
		assert.Equal(t, 2, collection.Pages)
		assert.False(t, collection.Truncated)
	})

	t.Run("page cap stops collection and marks truncation", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 0, &hits, absoluteLink))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, dirhttp.WithMaxPages(10))

		collection, err := client.Collect(context.Background(), &dirapi.Request{
			Method:   http.MethodGet,
			Path:     "/users",
			Paginate: true,
			MaxPages: 3,
		})
		require.NoError(t, err)
		assert.Len(t, collection.Items, 6)
		assert.Equal(t, 3, collection.Pages)
		assert.True(t, collection.Truncated)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("client default page cap applies", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 0, &hits, absoluteLink))
		defer server.Close()

		client, _ := newTestClient(t, server.URL, dirhttp.WithMaxPages(2))

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})
		require.NoError(t, err)
		assert.Equal(t, 2, collection.Pages)
		assert.True(t, collection.Truncated)
	})

	t.Run("cap equal to page count is not truncation", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 3, &hits, absoluteLink))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true, MaxPages: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, collection.Pages)
		assert.False(t, collection.Truncated)
	})

	t.Run("malformed link header ends pagination with a warning", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 0, &hits, func(_ *http.Request, next int) string {
			return fmt.Sprintf(`/api/v1/users?after=%d; rel=next`, next)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client, _ := newTestClient(t, server.URL, dirhttp.WithLogger(logger))

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})
		require.NoError(t, err)
		assert.Len(t, collection.Items, 2)
		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, []string{"Malformed pagination link header, treating as last page"}, logger.Messages("warn"))
	})

	t.Run("links to another host are not followed", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 0, &hits, func(_ *http.Request, next int) string {
			return fmt.Sprintf(`<https://elsewhere.example/api/v1/users?after=%d>; rel="next"`, next)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client, _ := newTestClient(t, server.URL, dirhttp.WithLogger(logger))

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})
		require.NoError(t, err)
		assert.Equal(t, 1, collection.Pages)
		assert.Equal(t, int32(1), hits.Load())
		assert.Len(t, logger.Messages("warn"), 1)
	})

	t.Run("self-referencing link stops", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 0, &hits, func(request *http.Request, _ int) string {
			return fmt.Sprintf(`<%s>; rel="next"`, request.URL.String())
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})
		require.NoError(t, err)
		assert.Equal(t, 1, collection.Pages)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("page failure returns no partial result", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		inner := pagedHandler(t, 0, &hits, absoluteLink)
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Query().Get("after") == "2" {
				writer.WriteHeader(http.StatusForbidden)

				return
			}

			inner.ServeHTTP(writer, request)
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})
		require.ErrorIs(t, err, dirapi.ErrFatalHTTP)
		assert.Nil(t, collection)
	})

	t.Run("single object body is one item", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{"id":"00u1"}`))
		}))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users/00u1", Paginate: true})
		require.NoError(t, err)
		require.Len(t, collection.Items, 1)
		assert.JSONEq(t, `{"id":"00u1"}`, string(collection.Items[0]))
	})

	t.Run("paginate unset fetches one page", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(pagedHandler(t, 0, &hits, absoluteLink))
		defer server.Close()

		client, _ := newTestClient(t, server.URL)

		collection, err := client.Collect(context.Background(), &dirapi.Request{Method: http.MethodGet, Path: "/users"})
		require.NoError(t, err)
		assert.Equal(t, 1, collection.Pages)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestPageIterator(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(pagedHandler(t, 2, &hits, absoluteLink))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)
	iterator := client.Pages(&dirapi.Request{Method: http.MethodGet, Path: "/users", Paginate: true})

	require.True(t, iterator.HasNext())

	first, err := iterator.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.True(t, iterator.HasNext())

	second, err := iterator.Next(context.Background())
	require.NoError(t, err)
	assert.Contains(t, second.URL, "after=2")
	assert.False(t, iterator.HasNext())
	assert.Equal(t, 2, iterator.PageCount())

	_, err = iterator.Next(context.Background())
	require.ErrorIs(t, err, dirhttp.ErrNoMorePages)
}
