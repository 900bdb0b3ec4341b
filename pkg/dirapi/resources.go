package dirapi

import (
	"time"
)

// User lifecycle statuses.
const (
	UserStatusStaged      = "STAGED"
	UserStatusProvisioned = "PROVISIONED"
	UserStatusActive      = "ACTIVE"
	UserStatusSuspended   = "SUSPENDED"
	UserStatusDeprovision = "DEPROVISIONED"
)

// User represents a directory principal.
type User struct {
	ID              string      `json:"id"                        yaml:"id"`
	Status          string      `json:"status"                    yaml:"status"`
	Created         *time.Time  `json:"created,omitempty"         yaml:"created,omitempty"`
	Activated       *time.Time  `json:"activated,omitempty"       yaml:"activated,omitempty"`
	StatusChanged   *time.Time  `json:"statusChanged,omitempty"   yaml:"statusChanged,omitempty"`
	LastLogin       *time.Time  `json:"lastLogin,omitempty"       yaml:"lastLogin,omitempty"`
	LastUpdated     *time.Time  `json:"lastUpdated,omitempty"     yaml:"lastUpdated,omitempty"`
	PasswordChanged *time.Time  `json:"passwordChanged,omitempty" yaml:"passwordChanged,omitempty"`
	Profile         UserProfile `json:"profile"                   yaml:"profile"`
	Links           Links       `json:"_links,omitempty"          yaml:"_links,omitempty"`
}

// UserProfile holds the standard profile attributes.
type UserProfile struct {
	Login       string `json:"login"                 yaml:"login"`
	Email       string `json:"email"                 yaml:"email"`
	FirstName   string `json:"firstName,omitempty"   yaml:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"    yaml:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty" yaml:"mobilePhone,omitempty"`
	Department  string `json:"department,omitempty"  yaml:"department,omitempty"`
}

// UserCreateRequest is the body for creating a principal.
type UserCreateRequest struct {
	Profile  UserProfile `json:"profile"            yaml:"profile"`
	GroupIDs []string    `json:"groupIds,omitempty" yaml:"groupIds,omitempty"`
}

// UserListOptions filters a user listing.
type UserListOptions struct {
	// Search is a SCIM-style expression, e.g. `status eq "ACTIVE"`.
	Search string
	// Filter is the legacy filter expression.
	Filter string
	// Q matches the beginning of login, name, or email.
	Q string
	// Limit is the page size requested from the service.
	Limit int
	// MaxPages caps pages fetched. Zero uses the client default.
	MaxPages int
}

// Group represents a directory group.
type Group struct {
	ID                    string       `json:"id"                              yaml:"id"`
	Type                  string       `json:"type"                            yaml:"type"`
	Created               *time.Time   `json:"created,omitempty"               yaml:"created,omitempty"`
	LastUpdated           *time.Time   `json:"lastUpdated,omitempty"           yaml:"lastUpdated,omitempty"`
	LastMembershipUpdated *time.Time   `json:"lastMembershipUpdated,omitempty" yaml:"lastMembershipUpdated,omitempty"`
	Profile               GroupProfile `json:"profile"                         yaml:"profile"`
	Links                 Links        `json:"_links,omitempty"                yaml:"_links,omitempty"`
}

// GroupProfile holds the group attributes.
type GroupProfile struct {
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AuditEvent represents one system log entry.
type AuditEvent struct {
	UUID           string             `json:"uuid"                     yaml:"uuid"`
	Published      time.Time          `json:"published"                yaml:"published"`
	EventType      string             `json:"eventType"                yaml:"eventType"`
	Version        string             `json:"version,omitempty"        yaml:"version,omitempty"`
	Severity       string             `json:"severity"                 yaml:"severity"`
	DisplayMessage string             `json:"displayMessage,omitempty" yaml:"displayMessage,omitempty"`
	Actor          AuditEventActor    `json:"actor"                    yaml:"actor"`
	Outcome        *AuditEventOutcome `json:"outcome,omitempty"        yaml:"outcome,omitempty"`
	Target         []AuditEventTarget `json:"target,omitempty"         yaml:"target,omitempty"`
}

// AuditEventActor is the principal that caused the event.
type AuditEventActor struct {
	ID          string `json:"id"                    yaml:"id"`
	Type        string `json:"type"                  yaml:"type"`
	AlternateID string `json:"alternateId,omitempty" yaml:"alternateId,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// AuditEventOutcome is the result of the audited action.
type AuditEventOutcome struct {
	Result string `json:"result"           yaml:"result"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// AuditEventTarget is an entity acted upon.
type AuditEventTarget struct {
	ID          string `json:"id"                    yaml:"id"`
	Type        string `json:"type"                  yaml:"type"`
	AlternateID string `json:"alternateId,omitempty" yaml:"alternateId,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// AuditEventListOptions filters an audit event listing.
type AuditEventListOptions struct {
	Since    *time.Time
	Until    *time.Time
	Filter   string
	Q        string
	Limit    int
	MaxPages int
}

// Links represents resource links.
type Links map[string]interface{}
