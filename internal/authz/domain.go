package authz

import (
	"time"

	"github.com/freightdesk/freightdesk/internal/shared"
)

// UserType partitions accounts into staff and client portal users.
type UserType string

const (
	UserTypeAdmin  UserType = "admin"
	UserTypeClient UserType = "client"
)

// IsValid checks if the user type is known.
func (t UserType) IsValid() bool {
	return t == UserTypeAdmin || t == UserTypeClient
}

// Role represents a named permission grouping. The name is the stable key;
// system roles are seeded at install time and protected from deletion.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserType    UserType  `json:"user_type"`
	Permissions []string  `json:"permissions"`
	System      bool      `json:"system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasWildcard reports whether the role carries the universal permission.
func (r Role) HasWildcard() bool {
	for _, p := range r.Permissions {
		if p == shared.PermAll {
			return true
		}
	}
	return false
}

// Contains reports whether the role names the permission exactly. The
// wildcard is not expanded here; only the resolver interprets it.
func (r Role) Contains(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Principal is the fully resolved identity for one request: user, role and
// per-user grant overrides, loaded once and passed through the call chain as
// an immutable value.
type Principal struct {
	UserID   int64
	Email    string
	UserType UserType
	RoleName string
	ClientID *int64

	role      *Role
	overrides map[string]struct{}
	blocked   map[string]struct{}
}

// NewPrincipal builds a Principal. A nil role marks an unresolvable role
// reference and yields a deny-all principal.
func NewPrincipal(userID int64, email string, userType UserType, role *Role, overrides, blocked []string, clientID *int64) Principal {
	roleName := ""
	if role != nil {
		roleName = role.Name
	}
	return Principal{
		UserID:    userID,
		Email:     email,
		UserType:  userType,
		RoleName:  roleName,
		ClientID:  clientID,
		role:      role,
		overrides: toSet(overrides),
		blocked:   toSet(blocked),
	}
}

// Role returns the resolved role, if any.
func (p Principal) Role() (*Role, bool) {
	return p.role, p.role != nil
}

// HasOverride reports whether the permission is explicitly granted for this
// user regardless of role.
func (p Principal) HasOverride(permission string) bool {
	_, ok := p.overrides[permission]
	return ok
}

// IsBlocked reports whether the permission is explicitly denied for this
// user. Block wins over overrides and over the role wildcard.
func (p Principal) IsBlocked(permission string) bool {
	_, ok := p.blocked[permission]
	return ok
}

// Overrides returns the override grant list.
func (p Principal) Overrides() []string {
	return fromSet(p.overrides)
}

// Blocked returns the blocked grant list.
func (p Principal) Blocked() []string {
	return fromSet(p.blocked)
}

func toSet(perms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

func fromSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}
