package users

import (
	"time"

	"github.com/freightdesk/freightdesk/internal/authz"
)

// User is an account as managed by back-office administrators. The grant
// fields adjust what the assigned role allows for this one account:
// overrides add permissions, blocks remove them and always win.
type User struct {
	ID             int64          `json:"id" db:"id"`
	Email          string         `json:"email" db:"email"`
	UserType       authz.UserType `json:"user_type" db:"user_type"`
	RoleName       string         `json:"role_name" db:"role_name"`
	ClientID       *int64         `json:"client_id,omitempty" db:"client_id"`
	OverrideGrants []string       `json:"override_grants" db:"override_grants"`
	BlockedGrants  []string       `json:"blocked_grants" db:"blocked_grants"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}
