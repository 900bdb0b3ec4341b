package client

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// Static errors for err113 compliance.
var (
	ErrMissingPathParam = errors.New("missing path parameter")
)

// Client implements the dirapi.Client interface.
type Client struct {
	httpClient   *http.Client
	config       *dirapi.Config
	secretSource string

	// Resource clients
	users       dirapi.UsersClient
	groups      dirapi.GroupsClient
	auditEvents dirapi.AuditEventsClient
	raw         dirapi.RawClient
}

// New creates a client over an executor. cfg supplies endpoint templates; a
// nil cfg uses the built-in defaults.
func New(cfg *dirapi.Config, httpClient *http.Client, secretSource string) *Client {
	if cfg == nil {
		cfg = &dirapi.Config{}
		cfg.ApplyDefaults()
	}

	client := &Client{
		httpClient:   httpClient,
		config:       cfg,
		secretSource: secretSource,
	}

	client.initializeResourceClients()

	return client
}

func (c *Client) initializeResourceClients() {
	paths := &endpoints{config: c.config}

	c.users = NewUsersClient(c.httpClient, paths)
	c.groups = NewGroupsClient(c.httpClient, paths)
	c.auditEvents = NewAuditEventsClient(c.httpClient, paths)
	c.raw = NewRawClient(c.httpClient)
}

// Users implements dirapi.Client.Users.
func (c *Client) Users() dirapi.UsersClient {
	return c.users
}

// Groups implements dirapi.Client.Groups.
func (c *Client) Groups() dirapi.GroupsClient {
	return c.groups
}

// AuditEvents implements dirapi.Client.AuditEvents.
func (c *Client) AuditEvents() dirapi.AuditEventsClient {
	return c.auditEvents
}

// Raw implements dirapi.Client.Raw.
func (c *Client) Raw() dirapi.RawClient {
	return c.raw
}

// SecretSource implements dirapi.Client.SecretSource.
func (c *Client) SecretSource() string {
	return c.secretSource
}

// HTTPClient returns the underlying executor.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// endpoints fills configured path templates.
type endpoints struct {
	config *dirapi.Config
}

// path returns the template registered under name with every {param}
// replaced by its path-escaped value.
func (e *endpoints) path(name string, params map[string]string) (string, error) {
	template, err := e.config.Endpoint(name)
	if err != nil {
		return "", err
	}

	var missing error

	filled := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]

		value, ok := params[key]
		if !ok || value == "" {
			if missing == nil {
				missing = fmt.Errorf("%w: %s in %s", ErrMissingPathParam, key, name)
			}

			return match
		}

		return url.PathEscape(value)
	})

	if missing != nil {
		return "", missing
	}

	return filled, nil
}
