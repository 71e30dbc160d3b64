package support

import (
	"context"
	"fmt"
	"strconv"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shared"
)

// Service provides business logic for support tickets. Client principals
// only ever see and create tickets for their own client account.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    *shared.AuditLogger
}

// NewService constructs a support service.
func NewService(repo Repository, resolver *authz.Resolver, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit}
}

// Get fetches one ticket with its message thread.
func (s *Service) Get(ctx context.Context, p authz.Principal, id int64) (*Ticket, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindSupport)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if clientID, restricted := scope.Restricted(); restricted && t.ClientID != clientID {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns tickets narrowed by the principal's scope.
func (s *Service) List(ctx context.Context, p authz.Principal, req ListTicketsRequest) ([]Ticket, int, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindSupport)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown ticket status %q", httpx.ErrValidation, *req.Status)
	}
	return s.repo.List(ctx, req, scope)
}

// Create opens a new ticket with its first message. A scoped principal
// always files under its own client account regardless of the request body.
func (s *Service) Create(ctx context.Context, p authz.Principal, req CreateTicketRequest) (*Ticket, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindSupport)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	clientID := req.ClientID
	if scoped, restricted := scope.Restricted(); restricted {
		clientID = scoped
	}
	return s.repo.Create(ctx, Ticket{
		ClientID:   clientID,
		ShipmentID: req.ShipmentID,
		Subject:    req.Subject,
		Status:     TicketStatusOpen,
		CreatedBy:  p.UserID,
	}, TicketMessage{
		AuthorID: p.UserID,
		Body:     req.Body,
	})
}

// AddMessage appends a message to a ticket the principal can see and
// reopens it if it was pending.
func (s *Service) AddMessage(ctx context.Context, p authz.Principal, ticketID int64, req AddMessageRequest) (*TicketMessage, error) {
	t, err := s.Get(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == TicketStatusClosed {
		return nil, fmt.Errorf("%w: ticket %d is closed", httpx.ErrTerminalState, ticketID)
	}
	msg, err := s.repo.AddMessage(ctx, TicketMessage{
		TicketID: t.ID,
		AuthorID: p.UserID,
		Body:     req.Body,
	})
	if err != nil {
		return nil, err
	}
	if t.Status == TicketStatusPending {
		if err := s.repo.UpdateStatus(ctx, t.ID, TicketStatusOpen); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// Close marks a ticket closed.
func (s *Service) Close(ctx context.Context, p authz.Principal, ticketID int64) error {
	t, err := s.Get(ctx, p, ticketID)
	if err != nil {
		return err
	}
	if t.Status == TicketStatusClosed {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, t.ID, TicketStatusClosed); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.UserID,
			Action:   "support.ticket.close",
			Entity:   "ticket",
			EntityID: strconv.FormatInt(t.ID, 10),
			Meta:     map[string]any{"client_id": t.ClientID},
		}); err != nil {
			return fmt.Errorf("audit ticket close: %w", err)
		}
	}
	return nil
}
