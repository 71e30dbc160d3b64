package shared

// PermAll is the wildcard permission meaning every capability, present and
// future. It is only ever interpreted inside the authz resolver.
const PermAll = "*"

// Core platform permissions.
const (
	PermUsersRead  = "users:read"
	PermUsersWrite = "users:write"

	PermRolesRead  = "roles:read"
	PermRolesWrite = "roles:write"

	PermClientsRead  = "clients:read"
	PermClientsWrite = "clients:write"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersRead,
		PermUsersWrite,
		PermRolesRead,
		PermRolesWrite,
		PermClientsRead,
		PermClientsWrite,
	}
}
