package tracking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/db"
	"github.com/freightdesk/freightdesk/internal/shipments"
)

var (
	ErrEventNotFound = errors.New("tracking event not found")
)

// Repository provides persistence for tracking events. The shipment status
// queries live here too so the event insert and the conditional status
// update can share one transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetShipment(ctx context.Context, id int64) (*shipments.Shipment, error)
	UpdateShipmentStatusIf(ctx context.Context, id int64, expected, next shipments.Status) (bool, error)
	InsertEvent(ctx context.Context, ev TrackingEvent) (TrackingEvent, error)
	GetEvent(ctx context.Context, id int64) (*TrackingEvent, error)
	UpdateEvent(ctx context.Context, id int64, req UpdateEventRequest) (*TrackingEvent, error)
	ListByShipment(ctx context.Context, shipmentID int64, scope authz.Scope) ([]TrackingEvent, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) GetShipment(ctx context.Context, id int64) (*shipments.Shipment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, reference, client_id, origin, destination, mode, status, carrier,
		       tracking_number, etd, eta, notes, created_by, created_at, updated_at
		FROM shipments WHERE id = $1`, id)
	var s shipments.Shipment
	err := row.Scan(&s.ID, &s.Reference, &s.ClientID, &s.Origin, &s.Destination, &s.Mode,
		&s.Status, &s.Carrier, &s.TrackingNumber, &s.ETD, &s.ETA, &s.Notes,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shipments.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) UpdateShipmentStatusIf(ctx context.Context, id int64, expected, next shipments.Status) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE shipments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const eventColumns = `id, public_id, shipment_id, code, description, location, occurred_at, recorded_by, applied_status, created_at, updated_at`

func (r *repository) InsertEvent(ctx context.Context, ev TrackingEvent) (TrackingEvent, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO tracking_events (public_id, shipment_id, code, description, location, occurred_at, recorded_by, applied_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+eventColumns,
		ev.PublicID, ev.ShipmentID, ev.Code, ev.Description, ev.Location,
		ev.OccurredAt, ev.RecordedBy, ev.AppliedStatus)
	return scanEvent(row)
}

func (r *repository) GetEvent(ctx context.Context, id int64) (*TrackingEvent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM tracking_events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvent edits descriptive fields only. The applied status column is
// deliberately untouched: recorded status effects are never replayed.
func (r *repository) UpdateEvent(ctx context.Context, id int64, req UpdateEventRequest) (*TrackingEvent, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tracking_events SET
			description = COALESCE($2, description),
			location = COALESCE($3, location),
			occurred_at = COALESCE($4, occurred_at),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+eventColumns,
		id, req.Description, req.Location, req.OccurredAt)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *repository) ListByShipment(ctx context.Context, shipmentID int64, scope authz.Scope) ([]TrackingEvent, error) {
	query := `
		SELECT e.id, e.public_id, e.shipment_id, e.code, e.description, e.location,
		       e.occurred_at, e.recorded_by, e.applied_status, e.created_at, e.updated_at
		FROM tracking_events e
		JOIN shipments s ON s.id = e.shipment_id
		WHERE e.shipment_id = $1`
	args := []interface{}{shipmentID}
	if clientID, restricted := scope.Restricted(); restricted {
		query += ` AND s.client_id = $2`
		args = append(args, clientID)
	}
	query += ` ORDER BY e.occurred_at ASC, e.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrackingEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (TrackingEvent, error) {
	var ev TrackingEvent
	err := row.Scan(&ev.ID, &ev.PublicID, &ev.ShipmentID, &ev.Code, &ev.Description,
		&ev.Location, &ev.OccurredAt, &ev.RecordedBy, &ev.AppliedStatus,
		&ev.CreatedAt, &ev.UpdatedAt)
	return ev, err
}
