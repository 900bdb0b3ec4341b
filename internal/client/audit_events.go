package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// auditTimeFormat is the timestamp layout the log endpoint accepts.
const auditTimeFormat = "2006-01-02T15:04:05.000Z"

// AuditEventsClient implements dirapi.AuditEventsClient.
type AuditEventsClient struct {
	httpClient *http.Client
	paths      *endpoints
}

// NewAuditEventsClient creates a new audit events client.
func NewAuditEventsClient(httpClient *http.Client, paths *endpoints) *AuditEventsClient {
	return &AuditEventsClient{
		httpClient: httpClient,
		paths:      paths,
	}
}

// List implements dirapi.AuditEventsClient.List.
func (c *AuditEventsClient) List(ctx context.Context, opts *dirapi.AuditEventListOptions) ([]dirapi.AuditEvent, error) {
	path, err := c.paths.path(constants.EndpointAuditEvents, nil)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}

	request := &dirapi.Request{
		Method:   "GET",
		Path:     path,
		Query:    url.Values{},
		Paginate: true,
	}

	if opts != nil {
		if opts.Since != nil {
			request.Query.Set("since", opts.Since.UTC().Format(auditTimeFormat))
		}

		if opts.Until != nil {
			request.Query.Set("until", opts.Until.UTC().Format(auditTimeFormat))
		}

		setIfNotEmpty(request.Query, "filter", opts.Filter)
		setIfNotEmpty(request.Query, "q", opts.Q)

		if opts.Limit > 0 {
			request.Query.Set("limit", strconv.Itoa(opts.Limit))
		}

		request.MaxPages = opts.MaxPages
	}

	events, err := http.CollectAs[dirapi.AuditEvent](ctx, c.httpClient, request)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}

	return events, nil
}
