package support_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/support"
	_ "github.com/freightdesk/freightdesk/testing"
)

type stubRepo struct {
	tickets  map[int64]*support.Ticket
	messages map[int64][]support.TicketMessage
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{tickets: map[int64]*support.Ticket{}, messages: map[int64][]support.TicketMessage{}, nextID: 1}
}

func (s *stubRepo) seed(t support.Ticket) *support.Ticket {
	t.ID = s.nextID
	s.nextID++
	stored := t
	s.tickets[stored.ID] = &stored
	return &stored
}

func (s *stubRepo) Get(ctx context.Context, id int64) (*support.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, support.ErrNotFound
	}
	out := *t
	out.Messages = s.messages[id]
	return &out, nil
}

func (s *stubRepo) List(ctx context.Context, req support.ListTicketsRequest, scope authz.Scope) ([]support.Ticket, int, error) {
	out := []support.Ticket{}
	for _, t := range s.tickets {
		if clientID, restricted := scope.Restricted(); restricted && t.ClientID != clientID {
			continue
		}
		if req.Status != nil && t.Status != *req.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (s *stubRepo) Create(ctx context.Context, t support.Ticket, first support.TicketMessage) (*support.Ticket, error) {
	stored := s.seed(t)
	first.TicketID = stored.ID
	first.ID = s.nextID
	s.nextID++
	s.messages[stored.ID] = []support.TicketMessage{first}
	stored.Messages = s.messages[stored.ID]
	return stored, nil
}

func (s *stubRepo) AddMessage(ctx context.Context, msg support.TicketMessage) (*support.TicketMessage, error) {
	msg.ID = s.nextID
	s.nextID++
	s.messages[msg.TicketID] = append(s.messages[msg.TicketID], msg)
	return &msg, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id int64, status support.TicketStatus) error {
	t, ok := s.tickets[id]
	if !ok {
		return support.ErrNotFound
	}
	t.Status = status
	return nil
}

func adminPrincipal() authz.Principal {
	role := &authz.Role{ID: 1, Name: "operations", UserType: authz.UserTypeAdmin, Permissions: []string{"*"}}
	return authz.NewPrincipal(3, "ops@test.local", authz.UserTypeAdmin, role, nil, nil, nil)
}

func clientPrincipal(clientID int64) authz.Principal {
	role := &authz.Role{ID: 2, Name: "client_portal", UserType: authz.UserTypeClient,
		Permissions: []string{"support:read:own", "support:write"}}
	return authz.NewPrincipal(8, "portal@test.local", authz.UserTypeClient, role, nil, nil, &clientID)
}

func TestCreateForcesOwnClientForScopedPrincipal(t *testing.T) {
	repo := newStubRepo()
	svc := support.NewService(repo, authz.NewResolver(nil), nil)

	// The request names another client, the scope wins.
	ticket, err := svc.Create(context.Background(), clientPrincipal(42), support.CreateTicketRequest{
		ClientID: 7,
		Subject:  "Container held at customs",
		Body:     "Our shipment has not moved in five days.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.ClientID)
	assert.Equal(t, support.TicketStatusOpen, ticket.Status)
	require.Len(t, ticket.Messages, 1)
	assert.Equal(t, int64(8), ticket.Messages[0].AuthorID)

	// An unrestricted principal files on behalf of any client.
	ticket, err = svc.Create(context.Background(), adminPrincipal(), support.CreateTicketRequest{
		ClientID: 7,
		Subject:  "Billing question",
		Body:     "Please review invoice INV-2609-0001.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), ticket.ClientID)
}

func TestGetScopedOutReadsAsNotFound(t *testing.T) {
	repo := newStubRepo()
	own := repo.seed(support.Ticket{ClientID: 42, Subject: "a", Status: support.TicketStatusOpen})
	other := repo.seed(support.Ticket{ClientID: 7, Subject: "b", Status: support.TicketStatusOpen})
	svc := support.NewService(repo, authz.NewResolver(nil), nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, clientPrincipal(42), own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = svc.Get(ctx, clientPrincipal(42), other.ID)
	assert.ErrorIs(t, err, support.ErrNotFound)
}

func TestAddMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("closed ticket accepts no messages", func(t *testing.T) {
		repo := newStubRepo()
		ticket := repo.seed(support.Ticket{ClientID: 42, Subject: "a", Status: support.TicketStatusClosed})
		svc := support.NewService(repo, authz.NewResolver(nil), nil)

		_, err := svc.AddMessage(ctx, adminPrincipal(), ticket.ID, support.AddMessageRequest{Body: "still broken"})
		assert.ErrorIs(t, err, httpx.ErrTerminalState)
	})

	t.Run("message reopens a pending ticket", func(t *testing.T) {
		repo := newStubRepo()
		ticket := repo.seed(support.Ticket{ClientID: 42, Subject: "a", Status: support.TicketStatusPending})
		svc := support.NewService(repo, authz.NewResolver(nil), nil)

		msg, err := svc.AddMessage(ctx, clientPrincipal(42), ticket.ID, support.AddMessageRequest{Body: "any update?"})
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, msg.TicketID)
		assert.Equal(t, support.TicketStatusOpen, repo.tickets[ticket.ID].Status)
	})

	t.Run("open ticket stays open", func(t *testing.T) {
		repo := newStubRepo()
		ticket := repo.seed(support.Ticket{ClientID: 42, Subject: "a", Status: support.TicketStatusOpen})
		svc := support.NewService(repo, authz.NewResolver(nil), nil)

		_, err := svc.AddMessage(ctx, clientPrincipal(42), ticket.ID, support.AddMessageRequest{Body: "more detail"})
		require.NoError(t, err)
		assert.Equal(t, support.TicketStatusOpen, repo.tickets[ticket.ID].Status)
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	repo := newStubRepo()
	ticket := repo.seed(support.Ticket{ClientID: 42, Subject: "a", Status: support.TicketStatusOpen})
	svc := support.NewService(repo, authz.NewResolver(nil), nil)

	require.NoError(t, svc.Close(ctx, adminPrincipal(), ticket.ID))
	assert.Equal(t, support.TicketStatusClosed, repo.tickets[ticket.ID].Status)

	// Closing twice is a no-op.
	require.NoError(t, svc.Close(ctx, adminPrincipal(), ticket.ID))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	repo := newStubRepo()
	svc := support.NewService(repo, authz.NewResolver(nil), nil)

	bogus := support.TicketStatus("SOLVED")
	_, _, err := svc.List(context.Background(), adminPrincipal(), support.ListTicketsRequest{Status: &bogus})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
