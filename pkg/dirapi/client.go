package dirapi

import (
	"context"
)

// UsersClient manages directory principals.
type UsersClient interface {
	List(ctx context.Context, opts *UserListOptions) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, request *UserCreateRequest, activate bool) (*User, error)
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
}

// GroupsClient manages groups and group membership.
type GroupsClient interface {
	List(ctx context.Context, query string) ([]Group, error)
	ListMembers(ctx context.Context, groupID string) ([]User, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// AuditEventsClient reads the audit event log.
type AuditEventsClient interface {
	List(ctx context.Context, opts *AuditEventListOptions) ([]AuditEvent, error)
}

// RawClient sends arbitrary requests through the rate-limited, retrying core.
type RawClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Collect(ctx context.Context, req *Request) (*Collection, error)
}

// Client provides access to all resource clients.
type Client interface {
	Users() UsersClient
	Groups() GroupsClient
	AuditEvents() AuditEventsClient
	Raw() RawClient

	// SecretSource names the resolution tier the API secret came from.
	SecretSource() string
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}
