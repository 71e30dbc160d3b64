package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shared"
)

func newGate() authz.Gate {
	return authz.Gate{Resolver: authz.NewResolver(nil)}
}

func TestCheckAll(t *testing.T) {
	g := newGate()
	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsRead, shared.PermShipmentsWrite), nil, nil, nil)

	assert.NoError(t, g.CheckAll(p, shared.PermShipmentsRead))
	assert.NoError(t, g.CheckAll(p, shared.PermShipmentsRead, shared.PermShipmentsWrite))

	err := g.CheckAll(p, shared.PermShipmentsRead, shared.PermShipmentsStatus)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// Empty permission list passes vacuously.
	assert.NoError(t, g.CheckAll(p))
}

func TestCheckAllBlockedAnywhereInList(t *testing.T) {
	g := newGate()
	p := authz.NewPrincipal(1, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermAll),
		nil, []string{shared.PermShipmentsStatus}, nil)

	err := g.CheckAll(p, shared.PermShipmentsWrite, shared.PermShipmentsStatus)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.ErrorContains(t, err, shared.PermShipmentsStatus)
}

func TestCheckAny(t *testing.T) {
	g := newGate()
	p := authz.NewPrincipal(1, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermShipmentsReadOwn), nil, nil, nil)

	assert.NoError(t, g.CheckAny(p, shared.PermShipmentsRead, shared.PermShipmentsReadOwn))

	err := g.CheckAny(p, shared.PermInvoicesRead, shared.PermInvoicesReadOwn)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestRequireMiddleware(t *testing.T) {
	g := newGate()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	handler := g.RequireAll(shared.PermShipmentsWrite)(next)

	// No principal in context yields 401.
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/shipments", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// Principal lacking the permission yields a generic 403.
	p := authz.NewPrincipal(1, "c@test.local", authz.UserTypeClient,
		clientRole(shared.PermShipmentsReadOwn), nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/shipments", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.NotContains(t, res.Body.String(), shared.PermShipmentsWrite)

	// Principal holding the permission passes through.
	admin := authz.NewPrincipal(2, "ops@test.local", authz.UserTypeAdmin,
		adminRole(shared.PermShipmentsWrite), nil, nil, nil)
	req = httptest.NewRequest(http.MethodPost, "/shipments", nil)
	req = req.WithContext(authz.ContextWithPrincipal(req.Context(), admin))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNoContent, res.Code)
}
