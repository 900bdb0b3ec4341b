package http

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// ErrNoMorePages is returned by PageIterator.Next after the last page.
var ErrNoMorePages = errors.New("no more pages")

// PageIterator walks a paginated listing one page at a time, following
// rel="next" Link headers.
type PageIterator struct {
	client    *Client
	next      *dirapi.Request
	maxPages  int
	pages     int
	truncated bool
	done      bool
	visited   map[string]struct{}
}

// Pages returns an iterator over the pages of req. A request with Paginate
// unset yields exactly one page.
func (c *Client) Pages(req *dirapi.Request) *PageIterator {
	maxPages := c.maxPages
	if req != nil && req.MaxPages > 0 {
		maxPages = req.MaxPages
	}

	return &PageIterator{
		client:   c,
		next:     req,
		maxPages: maxPages,
		visited:  make(map[string]struct{}),
	}
}

// HasNext reports whether another page can be fetched.
func (it *PageIterator) HasNext() bool {
	return !it.done
}

// PageCount returns the number of pages fetched so far.
func (it *PageIterator) PageCount() int {
	return it.pages
}

// Truncated reports that the page cap stopped iteration while a next link
// was still available.
func (it *PageIterator) Truncated() bool {
	return it.truncated
}

// Next fetches the next page. After an error the iterator is exhausted.
func (it *PageIterator) Next(ctx context.Context) (*dirapi.Response, error) {
	if it.done {
		return nil, ErrNoMorePages
	}

	current := it.next

	resp, err := it.client.Do(ctx, current)
	if err != nil {
		it.done = true

		return nil, err
	}

	it.pages++
	it.visited[resp.URL] = struct{}{}

	if current == nil || !current.Paginate {
		it.done = true

		return resp, nil
	}

	nextURL, ok := it.client.nextLink(resp)

	switch {
	case !ok:
		it.done = true
	case it.maxPages > 0 && it.pages >= it.maxPages:
		it.done = true
		it.truncated = true

		it.client.logger.Info("Page cap reached, more results available", map[string]interface{}{
			"url":       resp.URL,
			"pages":     it.pages,
			"max_pages": it.maxPages,
		})
	default:
		if _, seen := it.visited[nextURL]; seen {
			it.done = true

			it.client.logger.Warn("Pagination link loops to a fetched page, stopping", map[string]interface{}{
				"url":  resp.URL,
				"next": nextURL,
			})

			break
		}

		it.next = current.WithURL(nextURL)
	}

	return resp, nil
}

// Collect fetches every page of req and concatenates the items in order.
// Any page failure returns that error and no partial result.
func (c *Client) Collect(ctx context.Context, req *dirapi.Request) (*dirapi.Collection, error) {
	iterator := c.Pages(req)
	collection := &dirapi.Collection{}

	for iterator.HasNext() {
		resp, err := iterator.Next(ctx)
		if err != nil {
			return nil, err
		}

		collection.Items = append(collection.Items, resp.Items...)
	}

	collection.Pages = iterator.PageCount()
	collection.Truncated = iterator.Truncated()

	return collection, nil
}

// CollectAs collects every page of req and decodes the items into T.
func CollectAs[T any](ctx context.Context, c *Client, req *dirapi.Request) ([]T, error) {
	collection, err := c.Collect(ctx, req)
	if err != nil {
		return nil, err
	}

	return dirapi.DecodeItems[T](collection.Items)
}

// nextLink extracts the absolute continuation URI from resp. Malformed
// headers, unparsable URIs, and links leaving the service host end
// pagination with a warning.
func (c *Client) nextLink(resp *dirapi.Response) (string, bool) {
	values := resp.Header.Values(constants.LinkHeader)
	if len(values) == 0 {
		return "", false
	}

	links, err := parseLinkHeaders(values)
	if err != nil {
		c.paginationWarning("Malformed pagination link header, treating as last page", resp, err)

		return "", false
	}

	var raw string

	for _, candidate := range links {
		if candidate.hasRel(constants.RelNext) {
			raw = candidate.URI

			break
		}
	}

	if raw == "" {
		return "", false
	}

	base, err := url.Parse(resp.URL)
	if err != nil {
		c.paginationWarning("Unparsable page URL, treating as last page", resp, err)

		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		c.paginationWarning("Unparsable next page link, treating as last page", resp, err)

		return "", false
	}

	next := base.ResolveReference(ref)

	err = c.checkServiceURL(next)
	if errors.Is(err, dirapi.ErrUnsupportedScheme) {
		c.paginationWarning("Next page link has unsupported scheme, treating as last page", resp, nil)

		return "", false
	}

	if err != nil {
		c.logger.Warn("Next page link leaves the service host, treating as last page", map[string]interface{}{
			"url":  resp.URL,
			"next": next.Redacted(),
		})

		return "", false
	}

	return next.String(), true
}

func (c *Client) paginationWarning(msg string, resp *dirapi.Response, err error) {
	fields := map[string]interface{}{
		"url":        resp.URL,
		"link":       strings.Join(resp.Header.Values(constants.LinkHeader), ", "),
		"request_id": resp.RequestID,
	}

	if err != nil {
		fields["error"] = err
	}

	c.logger.Warn(msg, fields)
}
