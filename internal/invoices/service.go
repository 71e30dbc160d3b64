package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
)

// Service provides business logic for invoicing. Reads are narrowed by the
// resolver's scope decision before the query runs.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
}

// NewService constructs an invoice service.
func NewService(repo Repository, resolver *authz.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Get fetches one invoice visible to the principal.
func (s *Service) Get(ctx context.Context, p authz.Principal, id int64) (*Invoice, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindInvoices)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if clientID, restricted := scope.Restricted(); restricted && inv.ClientID != clientID {
		return nil, ErrNotFound
	}
	return inv, nil
}

// List returns invoices narrowed by the principal's scope.
func (s *Service) List(ctx context.Context, p authz.Principal, req ListInvoicesRequest) ([]Invoice, int, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindInvoices)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	return s.repo.List(ctx, req, scope)
}

// Create issues a draft invoice for a shipment.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest, createdBy int64) (*Invoice, error) {
	number, err := s.repo.GenerateNumber(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}
	return s.repo.Create(ctx, Invoice{
		Number:     number,
		ClientID:   req.ClientID,
		ShipmentID: req.ShipmentID,
		Status:     InvoiceStatusDraft,
		Currency:   req.Currency,
		Amount:     req.Amount,
		DueAt:      req.DueAt,
		CreatedBy:  createdBy,
	})
}
