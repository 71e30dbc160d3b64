package tracking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shipments"
	_ "github.com/freightdesk/freightdesk/testing"
)

type mockRepo struct {
	mu       sync.Mutex
	shipment shipments.Shipment
	events   []TrackingEvent
	nextID   int64

	// casRaces simulates this many lost compare-and-set attempts by
	// flipping the stored status just before the conditional update.
	// raceAlt is used when raceTo would match the expected status.
	casRaces  int
	raceTo    shipments.Status
	raceAlt   shipments.Status
	casCalls  int
	listScope *authz.Scope
}

func newMockRepo(status shipments.Status) *mockRepo {
	return &mockRepo{
		shipment: shipments.Shipment{ID: 1, Reference: "FD-260901-0001", ClientID: 42, Status: status},
		nextID:   1,
	}
}

func (m *mockRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	snapshot := make([]TrackingEvent, len(m.events))
	copy(snapshot, m.events)
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.events = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *mockRepo) GetShipment(ctx context.Context, id int64) (*shipments.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != m.shipment.ID {
		return nil, shipments.ErrNotFound
	}
	s := m.shipment
	return &s, nil
}

func (m *mockRepo) UpdateShipmentStatusIf(ctx context.Context, id int64, expected, next shipments.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	if m.casRaces > 0 {
		m.casRaces--
		if m.raceTo != expected {
			m.shipment.Status = m.raceTo
		} else {
			m.shipment.Status = m.raceAlt
		}
	}
	if m.shipment.Status != expected {
		return false, nil
	}
	m.shipment.Status = next
	return true, nil
}

func (m *mockRepo) InsertEvent(ctx context.Context, ev TrackingEvent) (TrackingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = m.nextID
	m.nextID++
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *mockRepo) GetEvent(ctx context.Context, id int64) (*TrackingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID == id {
			ev := m.events[i]
			return &ev, nil
		}
	}
	return nil, ErrEventNotFound
}

func (m *mockRepo) UpdateEvent(ctx context.Context, id int64, req UpdateEventRequest) (*TrackingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID == id {
			if req.Description != nil {
				m.events[i].Description = req.Description
			}
			if req.Location != nil {
				m.events[i].Location = req.Location
			}
			if req.OccurredAt != nil {
				m.events[i].OccurredAt = *req.OccurredAt
			}
			ev := m.events[i]
			return &ev, nil
		}
	}
	return nil, ErrEventNotFound
}

func (m *mockRepo) ListByShipment(ctx context.Context, shipmentID int64, scope authz.Scope) ([]TrackingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listScope = &scope
	out := make([]TrackingEvent, 0, len(m.events))
	for _, ev := range m.events {
		if ev.ShipmentID == shipmentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	changes []StatusChange
}

func (n *recordingNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	n.changes = append(n.changes, change)
	return nil
}

func adminPrincipal() authz.Principal {
	role := &authz.Role{ID: 1, Name: "ops", UserType: authz.UserTypeAdmin, Permissions: []string{"*"}}
	return authz.NewPrincipal(9, "ops@test.local", authz.UserTypeAdmin, role, nil, nil, nil)
}

func TestRecordEventAppliesProjection(t *testing.T) {
	repo := newMockRepo(shipments.StatusQuoted)
	notifier := &recordingNotifier{}
	svc := NewService(repo, authz.NewResolver(nil), nil, notifier, nil)

	ev, err := svc.RecordEvent(context.Background(), adminPrincipal(), 1, RecordEventRequest{Code: string(EventOrderConfirmed)})
	require.NoError(t, err)
	require.NotNil(t, ev.AppliedStatus)
	assert.Equal(t, shipments.StatusConfirmed, *ev.AppliedStatus)
	assert.Equal(t, shipments.StatusConfirmed, repo.shipment.Status)
	assert.NotEmpty(t, ev.PublicID)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, shipments.StatusQuoted, notifier.changes[0].From)
	assert.Equal(t, shipments.StatusConfirmed, notifier.changes[0].To)
	assert.Equal(t, ev.ID, notifier.changes[0].EventID)
}

func TestRecordEventInformationalCodeKeepsStatus(t *testing.T) {
	repo := newMockRepo(shipments.StatusInTransit)
	notifier := &recordingNotifier{}
	svc := NewService(repo, authz.NewResolver(nil), nil, notifier, nil)

	ev, err := svc.RecordEvent(context.Background(), adminPrincipal(), 1, RecordEventRequest{Code: string(EventLocationUpdate)})
	require.NoError(t, err)
	assert.Nil(t, ev.AppliedStatus)
	assert.Equal(t, shipments.StatusInTransit, repo.shipment.Status)
	assert.Empty(t, notifier.changes)
	assert.Equal(t, 0, repo.casCalls)
}

func TestRecordEventUnknownCode(t *testing.T) {
	repo := newMockRepo(shipments.StatusQuoted)
	svc := NewService(repo, authz.NewResolver(nil), nil, nil, nil)

	_, err := svc.RecordEvent(context.Background(), adminPrincipal(), 1, RecordEventRequest{Code: "teleported"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, repo.events)
}

func TestRecordEventTerminalShipmentRejected(t *testing.T) {
	repo := newMockRepo(shipments.StatusQuoted)
	svc := NewService(repo, authz.NewResolver(nil), nil, nil, nil)
	ctx := context.Background()
	p := adminPrincipal()

	for _, code := range []EventCode{EventOrderConfirmed, EventPickedUp, EventDelivered} {
		_, err := svc.RecordEvent(ctx, p, 1, RecordEventRequest{Code: string(code)})
		require.NoError(t, err)
	}
	assert.Equal(t, shipments.StatusDelivered, repo.shipment.Status)

	_, err := svc.RecordEvent(ctx, p, 1, RecordEventRequest{Code: string(EventDelayed)})
	assert.ErrorIs(t, err, httpx.ErrTerminalState)

	// Nothing was written for the rejected event.
	assert.Len(t, repo.events, 3)
	assert.Equal(t, shipments.StatusDelivered, repo.shipment.Status)
}

func TestRecordEventRetriesLostRace(t *testing.T) {
	repo := newMockRepo(shipments.StatusConfirmed)
	repo.casRaces = 1
	repo.raceTo = shipments.StatusInTransit
	svc := NewService(repo, authz.NewResolver(nil), nil, nil, nil)

	// First attempt loses the race to a concurrent writer that moved the
	// shipment to in_transit; the retry recomputes against the fresh
	// status and the customs projection still applies.
	ev, err := svc.RecordEvent(context.Background(), adminPrincipal(), 1,
		RecordEventRequest{Code: string(EventCustomsClearanceStarted)})
	require.NoError(t, err)
	require.NotNil(t, ev.AppliedStatus)
	assert.Equal(t, shipments.StatusCustoms, *ev.AppliedStatus)
	assert.Equal(t, shipments.StatusCustoms, repo.shipment.Status)

	// The losing attempt's event insert was rolled back.
	assert.Len(t, repo.events, 1)
	assert.Equal(t, 2, repo.casCalls)
}

func TestRecordEventRetriesExhausted(t *testing.T) {
	repo := newMockRepo(shipments.StatusConfirmed)
	svc := NewService(repo, authz.NewResolver(nil), nil, nil, nil)

	// Every attempt loses the race: the stored status moves away from
	// whatever the projection was computed against, so the conditional
	// update never applies.
	repo.casRaces = maxProjectionRetries
	repo.raceTo = shipments.StatusOnHold
	repo.raceAlt = shipments.StatusCustoms

	_, err := svc.RecordEvent(context.Background(), adminPrincipal(), 1,
		RecordEventRequest{Code: string(EventPickedUp)})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Empty(t, repo.events)
	assert.Equal(t, maxProjectionRetries, repo.casCalls)
}

func TestListEventsScopesClientPrincipal(t *testing.T) {
	repo := newMockRepo(shipments.StatusInTransit)
	svc := NewService(repo, authz.NewResolver(nil), nil, nil, nil)

	otherClient := int64(7)
	role := &authz.Role{ID: 2, Name: "portal", UserType: authz.UserTypeClient,
		Permissions: []string{"tracking:read:own"}}
	p := authz.NewPrincipal(5, "c@test.local", authz.UserTypeClient, role, nil, nil, &otherClient)

	// Shipment belongs to client 42, the principal to client 7.
	_, err := svc.ListEvents(context.Background(), p, 1)
	assert.ErrorIs(t, err, shipments.ErrNotFound)

	ownClient := int64(42)
	p = authz.NewPrincipal(5, "c@test.local", authz.UserTypeClient, role, nil, nil, &ownClient)
	_, err = svc.ListEvents(context.Background(), p, 1)
	require.NoError(t, err)
	require.NotNil(t, repo.listScope)
	got, restricted := repo.listScope.Restricted()
	assert.True(t, restricted)
	assert.Equal(t, int64(42), got)
}

func TestUpdateEventNeverReplaysProjection(t *testing.T) {
	repo := newMockRepo(shipments.StatusQuoted)
	svc := NewService(repo, authz.NewResolver(nil), nil, nil, nil)
	ctx := context.Background()

	ev, err := svc.RecordEvent(ctx, adminPrincipal(), 1, RecordEventRequest{Code: string(EventOrderConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, shipments.StatusConfirmed, repo.shipment.Status)

	desc := "carrier booking confirmed"
	updated, err := svc.UpdateEvent(ctx, ev.ID, UpdateEventRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, &desc, updated.Description)
	require.NotNil(t, updated.AppliedStatus)
	assert.Equal(t, shipments.StatusConfirmed, *updated.AppliedStatus)
	assert.Equal(t, shipments.StatusConfirmed, repo.shipment.Status)

	_, err = svc.UpdateEvent(ctx, 999, UpdateEventRequest{Description: &desc})
	assert.ErrorIs(t, err, ErrEventNotFound)
}
