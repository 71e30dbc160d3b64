package shipments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	_ "github.com/freightdesk/freightdesk/testing"
)

type fakeRepo struct {
	shipments map[int64]*Shipment
	nextID    int64
	refSeq    int

	// casDenied makes UpdateStatusIf report a lost race without
	// touching the stored shipment.
	casDenied bool

	lastListScope  *authz.Scope
	lastCountScope *authz.Scope
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{shipments: map[int64]*Shipment{}, nextID: 1}
}

func (f *fakeRepo) seed(s Shipment) *Shipment {
	s.ID = f.nextID
	f.nextID++
	stored := s
	f.shipments[stored.ID] = &stored
	return &stored
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (*Shipment, error) {
	s, ok := f.shipments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

func (f *fakeRepo) List(ctx context.Context, req ListShipmentsRequest, scope authz.Scope) ([]ShipmentWithClient, int, error) {
	f.lastListScope = &scope
	out := []ShipmentWithClient{}
	for _, s := range f.shipments {
		if clientID, restricted := scope.Restricted(); restricted && s.ClientID != clientID {
			continue
		}
		out = append(out, ShipmentWithClient{Shipment: *s, ClientName: "Test Client"})
	}
	return out, len(out), nil
}

func (f *fakeRepo) Create(ctx context.Context, s Shipment) (int64, error) {
	return f.seed(s).ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, req UpdateShipmentRequest) error {
	s, ok := f.shipments[id]
	if !ok {
		return ErrNotFound
	}
	if req.Origin != nil {
		s.Origin = *req.Origin
	}
	if req.Destination != nil {
		s.Destination = *req.Destination
	}
	if req.Carrier != nil {
		s.Carrier = req.Carrier
	}
	if req.Notes != nil {
		s.Notes = req.Notes
	}
	return nil
}

func (f *fakeRepo) UpdateStatusIf(ctx context.Context, id int64, expected, next Status) (bool, error) {
	if f.casDenied {
		return false, nil
	}
	s, ok := f.shipments[id]
	if !ok || s.Status != expected {
		return false, nil
	}
	s.Status = next
	return true, nil
}

func (f *fakeRepo) CountByStatus(ctx context.Context, status Status, scope authz.Scope) (int, error) {
	f.lastCountScope = &scope
	n := 0
	for _, s := range f.shipments {
		if s.Status != status {
			continue
		}
		if clientID, restricted := scope.Restricted(); restricted && s.ClientID != clientID {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeRepo) GenerateReference(ctx context.Context, date time.Time) (string, error) {
	f.refSeq++
	return fmt.Sprintf("FD-%s-%04d", date.Format("060102"), f.refSeq), nil
}

func opsPrincipal() authz.Principal {
	role := &authz.Role{ID: 1, Name: "operations", UserType: authz.UserTypeAdmin, Permissions: []string{"*"}}
	return authz.NewPrincipal(3, "ops@test.local", authz.UserTypeAdmin, role, nil, nil, nil)
}

func portalPrincipal(clientID int64) authz.Principal {
	role := &authz.Role{ID: 2, Name: "client_portal", UserType: authz.UserTypeClient,
		Permissions: []string{"shipments:read:own"}}
	return authz.NewPrincipal(8, "portal@test.local", authz.UserTypeClient, role, nil, nil, &clientID)
}

func TestCreateStartsQuoted(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, authz.NewResolver(nil), nil)

	s, err := svc.Create(context.Background(), CreateShipmentRequest{
		ClientID:    42,
		Origin:      "Rotterdam",
		Destination: "Singapore",
		Mode:        "sea",
	}, 3)
	require.NoError(t, err)
	assert.Equal(t, StatusQuoted, s.Status)
	assert.Equal(t, ModeSea, s.Mode)
	assert.Contains(t, s.Reference, "FD-")
	assert.Equal(t, int64(3), s.CreatedBy)
}

func TestCreateRejectsUnknownMode(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, authz.NewResolver(nil), nil)

	_, err := svc.Create(context.Background(), CreateShipmentRequest{
		ClientID:    42,
		Origin:      "Rotterdam",
		Destination: "Singapore",
		Mode:        "rail",
	}, 3)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetScopedOutReadsAsNotFound(t *testing.T) {
	repo := newFakeRepo()
	own := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusInTransit})
	other := repo.seed(Shipment{Reference: "FD-2", ClientID: 7, Status: StatusInTransit})
	svc := NewService(repo, authz.NewResolver(nil), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, portalPrincipal(42), own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = svc.Get(ctx, portalPrincipal(42), other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Unrestricted principals see everything.
	got, err = svc.Get(ctx, opsPrincipal(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestListAppliesScope(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusQuoted})
	repo.seed(Shipment{Reference: "FD-2", ClientID: 7, Status: StatusQuoted})
	svc := NewService(repo, authz.NewResolver(nil), nil)

	rows, total, err := svc.List(context.Background(), portalPrincipal(42), ListShipmentsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(42), rows[0].ClientID)

	require.NotNil(t, repo.lastListScope)
	_, restricted := repo.lastListScope.Restricted()
	assert.True(t, restricted)
}

func TestUpdateTerminalShipmentRejected(t *testing.T) {
	repo := newFakeRepo()
	s := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusDelivered})
	svc := NewService(repo, authz.NewResolver(nil), nil)

	origin := "Hamburg"
	_, err := svc.Update(context.Background(), s.ID, UpdateShipmentRequest{Origin: &origin})
	assert.ErrorIs(t, err, httpx.ErrTerminalState)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("applies valid transition", func(t *testing.T) {
		repo := newFakeRepo()
		s := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusConfirmed})
		svc := NewService(repo, authz.NewResolver(nil), nil)

		updated, err := svc.UpdateStatus(ctx, opsPrincipal(), s.ID, StatusInTransit, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusInTransit, updated.Status)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		repo := newFakeRepo()
		s := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusConfirmed})
		svc := NewService(repo, authz.NewResolver(nil), nil)

		_, err := svc.UpdateStatus(ctx, opsPrincipal(), s.ID, Status("lost"), nil)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("terminal shipment is read only", func(t *testing.T) {
		repo := newFakeRepo()
		s := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusCancelled})
		svc := NewService(repo, authz.NewResolver(nil), nil)

		_, err := svc.UpdateStatus(ctx, opsPrincipal(), s.ID, StatusInTransit, nil)
		assert.ErrorIs(t, err, httpx.ErrTerminalState)
		assert.Equal(t, StatusCancelled, repo.shipments[s.ID].Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		repo := newFakeRepo()
		s := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusCustoms})
		svc := NewService(repo, authz.NewResolver(nil), nil)

		updated, err := svc.UpdateStatus(ctx, opsPrincipal(), s.ID, StatusCustoms, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusCustoms, updated.Status)
	})

	t.Run("lost race surfaces as conflict", func(t *testing.T) {
		repo := newFakeRepo()
		s := repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusConfirmed})
		repo.casDenied = true
		svc := NewService(repo, authz.NewResolver(nil), nil)

		_, err := svc.UpdateStatus(ctx, opsPrincipal(), s.ID, StatusInTransit, nil)
		assert.ErrorIs(t, err, httpx.ErrConflict)
	})
}

func TestSummaryCountsEveryStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Shipment{Reference: "FD-1", ClientID: 42, Status: StatusQuoted})
	repo.seed(Shipment{Reference: "FD-2", ClientID: 42, Status: StatusInTransit})
	repo.seed(Shipment{Reference: "FD-3", ClientID: 7, Status: StatusInTransit})
	svc := NewService(repo, authz.NewResolver(nil), nil)

	summary, err := svc.Summary(context.Background(), opsPrincipal())
	require.NoError(t, err)
	require.Len(t, summary, len(AllStatuses()))

	byStatus := map[Status]int{}
	for _, row := range summary {
		byStatus[row.Status] = row.Count
	}
	assert.Equal(t, 1, byStatus[StatusQuoted])
	assert.Equal(t, 2, byStatus[StatusInTransit])
	assert.Equal(t, 0, byStatus[StatusDelivered])

	// A scoped principal only counts its own shipments.
	summary, err = svc.Summary(context.Background(), portalPrincipal(42))
	require.NoError(t, err)
	byStatus = map[Status]int{}
	for _, row := range summary {
		byStatus[row.Status] = row.Count
	}
	assert.Equal(t, 1, byStatus[StatusInTransit])
}
