package client

import (
	"context"

	"github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// RawClient implements dirapi.RawClient.
type RawClient struct {
	httpClient *http.Client
}

// NewRawClient creates a new raw request client.
func NewRawClient(httpClient *http.Client) *RawClient {
	return &RawClient{httpClient: httpClient}
}

// Do implements dirapi.RawClient.Do.
func (c *RawClient) Do(ctx context.Context, req *dirapi.Request) (*dirapi.Response, error) {
	return c.httpClient.Do(ctx, req)
}

// Collect implements dirapi.RawClient.Collect.
func (c *RawClient) Collect(ctx context.Context, req *dirapi.Request) (*dirapi.Collection, error) {
	return c.httpClient.Collect(ctx, req)
}
