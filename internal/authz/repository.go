package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freightdesk/freightdesk/internal/shared"
)

// PrincipalRecord is the raw per-user authorization data fetched from the
// store before role resolution.
type PrincipalRecord struct {
	UserID         int64
	Email          string
	UserType       UserType
	RoleName       string
	ClientID       *int64
	OverrideGrants []string
	BlockedGrants  []string
	IsActive       bool
}

// Repository provides access to roles and per-user grant records.
type Repository interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, role Role) (Role, error)
	DeleteRole(ctx context.Context, id int64) (int64, error)
	GetPrincipalRecord(ctx context.Context, userID int64) (PrincipalRecord, error)
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

const roleColumns = `id, name, description, user_type, permissions, is_system, created_at, updated_at`

func (r *repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
}

func (r *repository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
}

func (r *repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO roles (name, description, user_type, permissions, is_system)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+roleColumns,
		role.Name, role.Description, role.UserType, role.Permissions, role.System)
	return scanRole(row)
}

func (r *repository) UpdateRole(ctx context.Context, role Role) (Role, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE roles
		SET description = $2, user_type = $3, permissions = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+roleColumns,
		role.ID, role.Description, role.UserType, role.Permissions)
	updated, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return updated, err
}

func (r *repository) DeleteRole(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1 AND NOT is_system`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) GetPrincipalRecord(ctx context.Context, userID int64) (PrincipalRecord, error) {
	var rec PrincipalRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, email, user_type, role_name, client_id, override_grants, blocked_grants, is_active
		FROM users
		WHERE id = $1`, userID).
		Scan(&rec.UserID, &rec.Email, &rec.UserType, &rec.RoleName, &rec.ClientID,
			&rec.OverrideGrants, &rec.BlockedGrants, &rec.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return PrincipalRecord{}, shared.ErrNotFound
	}
	return rec, err
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.UserType,
		&role.Permissions, &role.System, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}
