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

// UsersClient implements dirapi.UsersClient.
type UsersClient struct {
	httpClient *http.Client
	paths      *endpoints
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *http.Client, paths *endpoints) *UsersClient {
	return &UsersClient{
		httpClient: httpClient,
		paths:      paths,
	}
}

// List implements dirapi.UsersClient.List.
func (c *UsersClient) List(ctx context.Context, opts *dirapi.UserListOptions) ([]dirapi.User, error) {
	path, err := c.paths.path(constants.EndpointUsers, nil)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	request := &dirapi.Request{
		Method:   "GET",
		Path:     path,
		Query:    url.Values{},
		Paginate: true,
	}

	if opts != nil {
		setIfNotEmpty(request.Query, "search", opts.Search)
		setIfNotEmpty(request.Query, "filter", opts.Filter)
		setIfNotEmpty(request.Query, "q", opts.Q)

		if opts.Limit > 0 {
			request.Query.Set("limit", strconv.Itoa(opts.Limit))
		}

		request.MaxPages = opts.MaxPages
	}

	users, err := http.CollectAs[dirapi.User](ctx, c.httpClient, request)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return users, nil
}

// Get implements dirapi.UsersClient.Get. id may be a user id or login.
func (c *UsersClient) Get(ctx context.Context, id string) (*dirapi.User, error) {
	if id == "" {
		return nil, dirapi.ErrUserIDRequired
	}

	path, err := c.paths.path(constants.EndpointUser, map[string]string{"userId": id})
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	var user dirapi.User

	err = resp.Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("parsing user: %w", err)
	}

	return &user, nil
}

// Create implements dirapi.UsersClient.Create.
func (c *UsersClient) Create(ctx context.Context, request *dirapi.UserCreateRequest, activate bool) (*dirapi.User, error) {
	path, err := c.paths.path(constants.EndpointUsers, nil)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, &dirapi.Request{
		Method: "POST",
		Path:   path,
		Query:  url.Values{"activate": {strconv.FormatBool(activate)}},
		Body:   request,
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	var user dirapi.User

	err = resp.Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("parsing created user: %w", err)
	}

	return &user, nil
}

// Activate implements dirapi.UsersClient.Activate.
func (c *UsersClient) Activate(ctx context.Context, id string) error {
	return c.lifecycle(ctx, id, "activate", url.Values{"sendEmail": {"false"}})
}

// Deactivate implements dirapi.UsersClient.Deactivate.
func (c *UsersClient) Deactivate(ctx context.Context, id string) error {
	return c.lifecycle(ctx, id, "deactivate", nil)
}

func (c *UsersClient) lifecycle(ctx context.Context, id, action string, query url.Values) error {
	if id == "" {
		return dirapi.ErrUserIDRequired
	}

	path, err := c.paths.path(constants.EndpointUserLifecycle, map[string]string{"userId": id, "action": action})
	if err != nil {
		return fmt.Errorf("%s user: %w", action, err)
	}

	_, err = c.httpClient.Do(ctx, &dirapi.Request{Method: "POST", Path: path, Query: query})
	if err != nil {
		return fmt.Errorf("%s user %s: %w", action, id, err)
	}

	return nil
}

func setIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
