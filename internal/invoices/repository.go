package invoices

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
	ErrNotFound = errors.New("invoice not found")
)

// Repository provides persistence for invoices.
type Repository interface {
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest, scope authz.Scope) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (*Invoice, error)
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
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

const invoiceColumns = `id, number, client_id, shipment_id, status, currency, amount, issued_at, due_at, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest, scope authz.Scope) ([]Invoice, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if clientID, restricted := scope.Restricted(); restricted {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, clientID)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
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
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT `+invoiceColumns+` FROM invoices%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO invoices (number, client_id, shipment_id, status, currency, amount, due_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+invoiceColumns,
		inv.Number, inv.ClientID, inv.ShipmentID, inv.Status, inv.Currency, inv.Amount, inv.DueAt, inv.CreatedBy)
	created, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s", date.Format("200601"))
	var seq int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) + 1 FROM invoices WHERE number LIKE $1`, prefix+"%").Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.ShipmentID, &inv.Status,
		&inv.Currency, &inv.Amount, &inv.IssuedAt, &inv.DueAt, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}
