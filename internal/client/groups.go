package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/internal/http"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// GroupsClient implements dirapi.GroupsClient.
type GroupsClient struct {
	httpClient *http.Client
	paths      *endpoints
}

// NewGroupsClient creates a new groups client.
func NewGroupsClient(httpClient *http.Client, paths *endpoints) *GroupsClient {
	return &GroupsClient{
		httpClient: httpClient,
		paths:      paths,
	}
}

// List implements dirapi.GroupsClient.List. query matches group names by
// prefix; empty lists every group.
func (c *GroupsClient) List(ctx context.Context, query string) ([]dirapi.Group, error) {
	path, err := c.paths.path(constants.EndpointGroups, nil)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}

	values := url.Values{}
	setIfNotEmpty(values, "q", query)

	groups, err := http.CollectAs[dirapi.Group](ctx, c.httpClient, &dirapi.Request{
		Method:   "GET",
		Path:     path,
		Query:    values,
		Paginate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}

	return groups, nil
}

// ListMembers implements dirapi.GroupsClient.ListMembers.
func (c *GroupsClient) ListMembers(ctx context.Context, groupID string) ([]dirapi.User, error) {
	if groupID == "" {
		return nil, dirapi.ErrGroupIDRequired
	}

	path, err := c.paths.path(constants.EndpointGroupMembers, map[string]string{"groupId": groupID})
	if err != nil {
		return nil, fmt.Errorf("listing group members: %w", err)
	}

	members, err := http.CollectAs[dirapi.User](ctx, c.httpClient, &dirapi.Request{
		Method:   "GET",
		Path:     path,
		Paginate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing members of group %s: %w", groupID, err)
	}

	return members, nil
}

// AddMember implements dirapi.GroupsClient.AddMember.
func (c *GroupsClient) AddMember(ctx context.Context, groupID, userID string) error {
	path, err := c.memberPath(groupID, userID)
	if err != nil {
		return fmt.Errorf("adding group member: %w", err)
	}

	_, err = c.httpClient.Put(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("adding user %s to group %s: %w", userID, groupID, err)
	}

	return nil
}

// RemoveMember implements dirapi.GroupsClient.RemoveMember.
func (c *GroupsClient) RemoveMember(ctx context.Context, groupID, userID string) error {
	path, err := c.memberPath(groupID, userID)
	if err != nil {
		return fmt.Errorf("removing group member: %w", err)
	}

	_, err = c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("removing user %s from group %s: %w", userID, groupID, err)
	}

	return nil
}

func (c *GroupsClient) memberPath(groupID, userID string) (string, error) {
	if groupID == "" {
		return "", dirapi.ErrGroupIDRequired
	}

	if userID == "" {
		return "", dirapi.ErrUserIDRequired
	}

	return c.paths.path(constants.EndpointGroupMember, map[string]string{"groupId": groupID, "userId": userID})
}
