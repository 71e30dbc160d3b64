package shipments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freightdesk/freightdesk/internal/authz"
)

var (
	ErrNotFound = errors.New("shipment not found")
)

// Repository provides persistence for shipments.
type Repository interface {
	Get(ctx context.Context, id int64) (*Shipment, error)
	List(ctx context.Context, req ListShipmentsRequest, scope authz.Scope) ([]ShipmentWithClient, int, error)
	Create(ctx context.Context, s Shipment) (int64, error)
	Update(ctx context.Context, id int64, req UpdateShipmentRequest) error
	UpdateStatusIf(ctx context.Context, id int64, expected, next Status) (bool, error)
	CountByStatus(ctx context.Context, status Status, scope authz.Scope) (int, error)
	GenerateReference(ctx context.Context, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a Repository backed by the provided pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const shipmentColumns = `id, reference, client_id, origin, destination, mode, status, carrier, tracking_number, etd, eta, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Shipment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
	s, err := scanShipment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, req ListShipmentsRequest, scope authz.Scope) ([]ShipmentWithClient, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if clientID, restricted := scope.Restricted(); restricted {
		conditions = append(conditions, fmt.Sprintf("s.client_id = $%d", argPos))
		args = append(args, clientID)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("s.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	where := ""
	for i, cond := range conditions {
		if i == 0 {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM shipments s`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT s.id, s.reference, s.client_id, s.origin, s.destination, s.mode, s.status,
		       s.carrier, s.tracking_number, s.etd, s.eta, s.notes, s.created_by,
		       s.created_at, s.updated_at, c.name AS client_name
		FROM shipments s
		JOIN clients c ON c.id = s.client_id
		%s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ShipmentWithClient
	for rows.Next() {
		var s ShipmentWithClient
		if err := rows.Scan(&s.ID, &s.Reference, &s.ClientID, &s.Origin, &s.Destination,
			&s.Mode, &s.Status, &s.Carrier, &s.TrackingNumber, &s.ETD, &s.ETA, &s.Notes,
			&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.ClientName); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, s Shipment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO shipments (reference, client_id, origin, destination, mode, status, carrier, tracking_number, etd, eta, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		s.Reference, s.ClientID, s.Origin, s.Destination, s.Mode, s.Status,
		s.Carrier, s.TrackingNumber, s.ETD, s.ETA, s.Notes, s.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateShipmentRequest) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE shipments SET
			origin = COALESCE($2, origin),
			destination = COALESCE($3, destination),
			carrier = COALESCE($4, carrier),
			tracking_number = COALESCE($5, tracking_number),
			etd = COALESCE($6, etd),
			eta = COALESCE($7, eta),
			notes = COALESCE($8, notes),
			updated_at = NOW()
		WHERE id = $1`,
		id, req.Origin, req.Destination, req.Carrier, req.TrackingNumber, req.ETD, req.ETA, req.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusIf applies the status change only when the stored status still
// matches expected. Returns false when another writer got there first.
func (r *repository) UpdateStatusIf(ctx context.Context, id int64, expected, next Status) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE shipments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) CountByStatus(ctx context.Context, status Status, scope authz.Scope) (int, error) {
	query := `SELECT COUNT(*) FROM shipments WHERE status = $1`
	args := []interface{}{status}
	if clientID, restricted := scope.Restricted(); restricted {
		query += ` AND client_id = $2`
		args = append(args, clientID)
	}
	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *repository) GenerateReference(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("FD-%s", date.Format("200601"))
	var seq int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) + 1 FROM shipments WHERE reference LIKE $1`, prefix+"%").Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var s Shipment
	err := row.Scan(&s.ID, &s.Reference, &s.ClientID, &s.Origin, &s.Destination, &s.Mode,
		&s.Status, &s.Carrier, &s.TrackingNumber, &s.ETD, &s.ETA, &s.Notes,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
