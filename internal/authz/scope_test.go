package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/shared"
)

func clientRole(perms ...string) *authz.Role {
	return &authz.Role{ID: 10, Name: "portal", UserType: authz.UserTypeClient, Permissions: perms}
}

func TestScopeForAdminUnrestricted(t *testing.T) {
	r := authz.NewResolver(nil)
	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsRead), nil, nil, nil)

	scope, err := r.ScopeFor(p, authz.KindShipments)
	require.NoError(t, err)
	_, restricted := scope.Restricted()
	assert.False(t, restricted)
}

func TestScopeForClientWithFullRead(t *testing.T) {
	r := authz.NewResolver(nil)
	clientID := int64(42)
	p := authz.NewPrincipal(2, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermShipmentsRead), nil, nil, &clientID)

	scope, err := r.ScopeFor(p, authz.KindShipments)
	require.NoError(t, err)
	_, restricted := scope.Restricted()
	assert.False(t, restricted)
}

func TestScopeForClientOwnOnly(t *testing.T) {
	r := authz.NewResolver(nil)
	clientID := int64(42)
	p := authz.NewPrincipal(2, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermShipmentsReadOwn), nil, nil, &clientID)

	scope, err := r.ScopeFor(p, authz.KindShipments)
	require.NoError(t, err)
	got, restricted := scope.Restricted()
	assert.True(t, restricted)
	assert.Equal(t, int64(42), got)
}

func TestScopeForClientWithNeitherRead(t *testing.T) {
	r := authz.NewResolver(nil)
	clientID := int64(42)
	p := authz.NewPrincipal(2, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermSupportReadOwn), nil, nil, &clientID)

	// The route gate denies access before queries run; the scope itself
	// stays unrestricted.
	scope, err := r.ScopeFor(p, authz.KindShipments)
	require.NoError(t, err)
	_, restricted := scope.Restricted()
	assert.False(t, restricted)
}

func TestScopeForOwnWithoutClientIDFails(t *testing.T) {
	r := authz.NewResolver(nil)
	p := authz.NewPrincipal(2, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermShipmentsReadOwn), nil, nil, nil)

	_, err := r.ScopeFor(p, authz.KindShipments)
	require.Error(t, err)
	assert.ErrorIs(t, err, authz.ErrInvalidConfiguration)
}

func TestScopeForBlockedFullReadFallsToOwn(t *testing.T) {
	r := authz.NewResolver(nil)
	clientID := int64(7)
	p := authz.NewPrincipal(3, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermTrackingRead, shared.PermTrackingReadOwn),
		nil, []string{shared.PermTrackingRead}, &clientID)

	scope, err := r.ScopeFor(p, authz.KindTracking)
	require.NoError(t, err)
	got, restricted := scope.Restricted()
	assert.True(t, restricted)
	assert.Equal(t, int64(7), got)
}
