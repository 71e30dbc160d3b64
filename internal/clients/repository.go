package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("client not found")
	ErrAlreadyExists = errors.New("client already exists")
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Client, error)
	GetByCode(ctx context.Context, code string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, c Client) (*Client, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
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

const clientColumns = `id, code, name, email, phone, address_line1, address_line2, city, country, is_active, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Client, error) {
	row := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE code = $1`, code)
	return scanClient(row)
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT `+clientColumns+` FROM clients%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone,
			&c.AddressLine1, &c.AddressLine2, &c.City, &c.Country,
			&c.IsActive, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO clients (code, name, email, phone, address_line1, address_line2, city, country, is_active, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+clientColumns,
		c.Code, c.Name, c.Email, c.Phone, c.AddressLine1, c.AddressLine2,
		c.City, c.Country, c.IsActive, c.Notes, c.CreatedBy)
	return scanClient(row)
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	var sets []string
	var args []interface{}
	argPos := 1
	for col, val := range updates {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE clients SET %s WHERE id = $%d`, strings.Join(sets, ", "), argPos)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Email, &c.Phone,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.Country,
		&c.IsActive, &c.Notes, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
