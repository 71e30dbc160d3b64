package shipments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shared"
)

var (
	ErrInvalidStatus = errors.New("invalid shipment status")
)

// Service provides business logic for shipments. Every read applies the
// resolver's scope decision before touching the repository.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    *shared.AuditLogger
}

// NewService constructs a shipment service.
func NewService(repo Repository, resolver *authz.Resolver, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit}
}

// Create registers a new shipment in the quoted state.
func (s *Service) Create(ctx context.Context, req CreateShipmentRequest, createdBy int64) (*Shipment, error) {
	mode := TransportMode(req.Mode)
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown mode %q", httpx.ErrValidation, req.Mode)
	}

	reference, err := s.repo.GenerateReference(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}

	id, err := s.repo.Create(ctx, Shipment{
		Reference:      reference,
		ClientID:       req.ClientID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Mode:           mode,
		Status:         StatusQuoted,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		ETD:            req.ETD,
		ETA:            req.ETA,
		Notes:          req.Notes,
		CreatedBy:      createdBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get fetches one shipment visible to the principal. Shipments outside an
// owned scope read as not found rather than forbidden.
func (s *Service) Get(ctx context.Context, p authz.Principal, id int64) (*Shipment, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindShipments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	shipment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if clientID, restricted := scope.Restricted(); restricted && shipment.ClientID != clientID {
		return nil, ErrNotFound
	}
	return shipment, nil
}

// List returns shipments narrowed by the principal's scope.
func (s *Service) List(ctx context.Context, p authz.Principal, req ListShipmentsRequest) ([]ShipmentWithClient, int, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindShipments)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	return s.repo.List(ctx, req, scope)
}

// Update edits mutable shipment fields. Terminal shipments are read-only.
func (s *Service) Update(ctx context.Context, id int64, req UpdateShipmentRequest) (*Shipment, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: shipment %s is %s", httpx.ErrTerminalState, existing.Reference, existing.Status)
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateStatus applies a direct administrative status change. The write is
// conditional on the status the admin saw; a concurrent projection surfaces
// as a conflict instead of being overwritten.
func (s *Service) UpdateStatus(ctx context.Context, p authz.Principal, id int64, next Status, reason *string) (*Shipment, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: shipment %s is %s", httpx.ErrTerminalState, existing.Reference, existing.Status)
	}
	if existing.Status == next {
		return existing, nil
	}

	applied, err := s.repo.UpdateStatusIf(ctx, id, existing.Status, next)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: shipment %d status changed concurrently", httpx.ErrConflict, id)
	}

	if s.audit != nil {
		meta := map[string]any{"from": existing.Status, "to": next, "source": "admin"}
		if reason != nil {
			meta["reason"] = *reason
		}
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.UserID,
			Action:   "shipment.status.update",
			Entity:   "shipment",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     meta,
		}); err != nil {
			return nil, fmt.Errorf("audit status update: %w", err)
		}
	}

	return s.repo.Get(ctx, id)
}

// Summary counts shipments per lifecycle status, scoped to the principal.
func (s *Service) Summary(ctx context.Context, p authz.Principal) ([]StatusSummary, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindShipments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}

	statuses := AllStatuses()
	counts := make([]int, len(statuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, status := range statuses {
		i, status := i, status
		g.Go(func() error {
			count, err := s.repo.CountByStatus(gctx, status, scope)
			if err != nil {
				return err
			}
			counts[i] = count
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]StatusSummary, len(statuses))
	for i, status := range statuses {
		out[i] = StatusSummary{Status: status, Count: counts[i]}
	}
	return out, nil
}
