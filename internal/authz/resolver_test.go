package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/shared"
	_ "github.com/freightdesk/freightdesk/testing"
)

func adminRole(perms ...string) *authz.Role {
	return &authz.Role{ID: 1, Name: "ops", UserType: authz.UserTypeAdmin, Permissions: perms}
}

func TestResolveRoleMembership(t *testing.T) {
	r := authz.NewResolver(nil)
	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsRead, shared.PermShipmentsWrite), nil, nil, nil)

	assert.True(t, r.Resolve(p, shared.PermShipmentsRead))
	assert.True(t, r.Resolve(p, shared.PermShipmentsWrite))
	assert.False(t, r.Resolve(p, shared.PermInvoicesWrite))
	assert.False(t, r.Resolve(p, ""))
}

func TestResolveWildcard(t *testing.T) {
	r := authz.NewResolver(nil)
	p := authz.NewPrincipal(1, "root@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermAll), nil, nil, nil)

	for _, perm := range shared.AllScopes() {
		assert.True(t, r.Resolve(p, perm), perm)
	}
}

func TestResolveOverrideGrants(t *testing.T) {
	r := authz.NewResolver(nil)
	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsRead),
		[]string{shared.PermInvoicesWrite}, nil, nil)

	assert.True(t, r.Resolve(p, shared.PermInvoicesWrite))
	assert.True(t, r.Resolve(p, shared.PermShipmentsRead))
}

func TestResolveBlockWins(t *testing.T) {
	r := authz.NewResolver(nil)

	// Block beats exact role membership.
	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsRead),
		nil, []string{shared.PermShipmentsRead}, nil)
	assert.False(t, r.Resolve(p, shared.PermShipmentsRead))

	// Block beats the role wildcard.
	p = authz.NewPrincipal(2, "root@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermAll),
		nil, []string{shared.PermUsersWrite}, nil)
	assert.False(t, r.Resolve(p, shared.PermUsersWrite))
	assert.True(t, r.Resolve(p, shared.PermUsersRead))

	// Block beats an override naming the same permission.
	p = authz.NewPrincipal(3, "ops@test.local", authz.UserTypeAdmin,
		adminRole(),
		[]string{shared.PermInvoicesWrite}, []string{shared.PermInvoicesWrite}, nil)
	assert.False(t, r.Resolve(p, shared.PermInvoicesWrite))
}

func TestResolveMissingRoleDeniesAll(t *testing.T) {
	r := authz.NewResolver(nil)
	p := authz.NewPrincipal(1, "ghost@test.local", authz.UserTypeAdmin, nil, nil, nil, nil)

	assert.False(t, r.Resolve(p, shared.PermShipmentsRead))

	// Overrides still apply without a role.
	p = authz.NewPrincipal(1, "ghost@test.local", authz.UserTypeAdmin, nil,
		[]string{shared.PermShipmentsRead}, nil, nil)
	assert.True(t, r.Resolve(p, shared.PermShipmentsRead))
}

func TestEffectivePermissions(t *testing.T) {
	r := authz.NewResolver(nil)

	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsRead, shared.PermShipmentsWrite),
		[]string{shared.PermInvoicesRead},
		[]string{shared.PermShipmentsWrite}, nil)

	perms := r.EffectivePermissions(p)
	assert.Equal(t, []string{shared.PermInvoicesRead, shared.PermShipmentsRead}, perms)

	wildcard := authz.NewPrincipal(2, "root@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermAll), nil, nil, nil)
	assert.Equal(t, []string{shared.PermAll}, r.EffectivePermissions(wildcard))

	noRole := authz.NewPrincipal(3, "ghost@test.local", authz.UserTypeAdmin, nil, nil, nil, nil)
	assert.Empty(t, r.EffectivePermissions(noRole))

	// A role-less principal still reports override grants, minus blocks,
	// just as Resolve honors them.
	granted := authz.NewPrincipal(4, "ghost@test.local", authz.UserTypeAdmin, nil,
		[]string{shared.PermShipmentsRead, shared.PermInvoicesRead},
		[]string{shared.PermInvoicesRead}, nil)
	assert.Equal(t, []string{shared.PermShipmentsRead}, r.EffectivePermissions(granted))
}
