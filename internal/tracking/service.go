package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shared"
	"github.com/freightdesk/freightdesk/internal/shipments"
)

// maxProjectionRetries bounds how often a projection is retried after losing
// a compare-and-set race before the write is surfaced as transient failure.
const maxProjectionRetries = 3

var errStaleStatus = errors.New("tracking: shipment status changed concurrently")

// StatusChange describes a lifecycle transition caused by a tracking event.
type StatusChange struct {
	ShipmentID int64
	Reference  string
	EventID    int64
	Code       EventCode
	From       shipments.Status
	To         shipments.Status
}

// Notifier is told about successful status transitions. Implementations must
// not block the write path; failures are logged, never propagated.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

// Service records tracking events and projects them onto the shipment
// lifecycle. The projection is applied in the same transaction as the event
// insert, conditionally on the status the projection was computed against.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    *shared.AuditLogger
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs a tracking service.
func NewService(repo Repository, resolver *authz.Resolver, audit *shared.AuditLogger, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, notifier: notifier, logger: logger}
}

// RecordEvent persists a tracking event and applies its status effect to the
// owning shipment. Events against terminal shipments fail whole: neither the
// event nor any status change is persisted.
func (s *Service) RecordEvent(ctx context.Context, p authz.Principal, shipmentID int64, req RecordEventRequest) (*TrackingEvent, error) {
	code := EventCode(req.Code)
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: unknown event code %q", httpx.ErrValidation, req.Code)
	}
	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	for attempt := 0; attempt < maxProjectionRetries; attempt++ {
		shipment, err := s.repo.GetShipment(ctx, shipmentID)
		if err != nil {
			return nil, err
		}
		if shipment.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: shipment %s is %s, no further events accepted",
				httpx.ErrTerminalState, shipment.Reference, shipment.Status)
		}

		target, changed := Project(shipment.Status, code)

		ev := TrackingEvent{
			PublicID:    uuid.NewString(),
			ShipmentID:  shipmentID,
			Code:        code,
			Description: req.Description,
			Location:    req.Location,
			OccurredAt:  occurredAt,
			RecordedBy:  p.UserID,
		}
		if changed {
			ev.AppliedStatus = &target
		}

		var inserted TrackingEvent
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
			var err error
			inserted, err = tx.InsertEvent(ctx, ev)
			if err != nil {
				return fmt.Errorf("insert event: %w", err)
			}
			if !changed {
				return nil
			}
			applied, err := tx.UpdateShipmentStatusIf(ctx, shipmentID, shipment.Status, target)
			if err != nil {
				return fmt.Errorf("update shipment status: %w", err)
			}
			if !applied {
				return errStaleStatus
			}
			return nil
		})
		if errors.Is(err, errStaleStatus) {
			if s.logger != nil {
				s.logger.Info("projection lost status race, retrying",
					slog.Int64("shipment_id", shipmentID),
					slog.Int("attempt", attempt+1))
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if changed {
			s.recordTransition(ctx, p, shipment, inserted, target)
		}
		return &inserted, nil
	}

	return nil, fmt.Errorf("%w: shipment %d projection retries exhausted", httpx.ErrConflict, shipmentID)
}

// ListEvents returns a shipment's events, scoped to the principal. Shipments
// outside an owned scope read as not found.
func (s *Service) ListEvents(ctx context.Context, p authz.Principal, shipmentID int64) ([]TrackingEvent, error) {
	scope, err := s.resolver.ScopeFor(p, authz.KindTracking)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	}
	shipment, err := s.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if clientID, restricted := scope.Restricted(); restricted && shipment.ClientID != clientID {
		return nil, shipments.ErrNotFound
	}
	return s.repo.ListByShipment(ctx, shipmentID, scope)
}

// UpdateEvent edits an event's descriptive fields. The status effect the
// event already applied stays as recorded; edits never replay the projection.
func (s *Service) UpdateEvent(ctx context.Context, id int64, req UpdateEventRequest) (*TrackingEvent, error) {
	if _, err := s.repo.GetEvent(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.UpdateEvent(ctx, id, req)
}

func (s *Service) recordTransition(ctx context.Context, p authz.Principal, shipment *shipments.Shipment, ev TrackingEvent, target shipments.Status) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.UserID,
			Action:   "shipment.status.project",
			Entity:   "shipment",
			EntityID: strconv.FormatInt(shipment.ID, 10),
			Meta: map[string]any{
				"from":     shipment.Status,
				"to":       target,
				"event_id": ev.ID,
				"code":     ev.Code,
			},
		})
		if err != nil && s.logger != nil {
			s.logger.Error("audit status projection", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		err := s.notifier.NotifyStatusChange(ctx, StatusChange{
			ShipmentID: shipment.ID,
			Reference:  shipment.Reference,
			EventID:    ev.ID,
			Code:       ev.Code,
			From:       shipment.Status,
			To:         target,
		})
		if err != nil && s.logger != nil {
			s.logger.Warn("notify status change", slog.Any("error", err))
		}
	}
}
