package dirapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one logical call against the API.
//
// Path is relative to the versioned base URL (for example "/users"). URL, when
// set, is an absolute URI on the service host used instead of Path; Query is
// added to its own query parameters. The paginator sets it from continuation
// links.
type Request struct {
	Method  string
	Path    string
	URL     string
	Query   url.Values
	Body    interface{}
	Headers map[string]string

	// Paginate asks Collect to follow continuation links.
	Paginate bool
	// MaxPages caps the pages Collect fetches. Zero uses the client default.
	MaxPages int
}

// WithURL returns a copy of the request targeting an absolute URI.
func (r *Request) WithURL(uri string) *Request {
	next := *r
	next.URL = uri
	next.Query = nil

	return &next
}

// Response is a successfully decoded response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
	RequestID  string
	// Attempts counts the physical attempts made for the call.
	Attempts int
	// Items holds the decoded JSON body: one element per array entry, or a
	// single element for an object body. Empty bodies yield no items.
	Items []json.RawMessage
}

// Decode unmarshals the raw response body into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Collection is the ordered result of a paginated call.
type Collection struct {
	Items []json.RawMessage
	// Pages is the number of pages fetched.
	Pages int
	// Truncated reports that the page cap stopped collection while a next
	// link was still available.
	Truncated bool
}

// DecodeItems unmarshals each raw item into T, preserving order.
func DecodeItems[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))

	for i, raw := range items {
		var item T

		err := json.Unmarshal(raw, &item)
		if err != nil {
			return nil, fmt.Errorf("decoding item %d: %w", i, err)
		}

		out = append(out, item)
	}

	return out, nil
}
