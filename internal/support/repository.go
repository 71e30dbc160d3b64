package support

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/db"
)

var (
	ErrNotFound = errors.New("ticket not found")
)

// Repository provides persistence for support tickets.
type Repository interface {
	Get(ctx context.Context, id int64) (*Ticket, error)
	List(ctx context.Context, req ListTicketsRequest, scope authz.Scope) ([]Ticket, int, error)
	Create(ctx context.Context, t Ticket, firstMessage TicketMessage) (*Ticket, error)
	AddMessage(ctx context.Context, msg TicketMessage) (*TicketMessage, error)
	UpdateStatus(ctx context.Context, id int64, status TicketStatus) error
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

const ticketColumns = `id, client_id, shipment_id, subject, status, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1`, id)
	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, ticket_id, author_id, body, created_at
		FROM support_ticket_messages
		WHERE ticket_id = $1
		ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var msg TicketMessage
		if err := rows.Scan(&msg.ID, &msg.TicketID, &msg.AuthorID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, err
		}
		t.Messages = append(t.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, req ListTicketsRequest, scope authz.Scope) ([]Ticket, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if clientID, restricted := scope.Restricted(); restricted {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, clientID)
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
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM support_tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT `+ticketColumns+` FROM support_tickets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, t Ticket, firstMessage TicketMessage) (*Ticket, error) {
	var created Ticket
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO support_tickets (client_id, shipment_id, subject, status, created_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+ticketColumns,
			t.ClientID, t.ShipmentID, t.Subject, t.Status, t.CreatedBy)
		var err error
		created, err = scanTicket(row)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO support_ticket_messages (ticket_id, author_id, body)
			VALUES ($1, $2, $3)`,
			created.ID, firstMessage.AuthorID, firstMessage.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, created.ID)
}

func (r *repository) AddMessage(ctx context.Context, msg TicketMessage) (*TicketMessage, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO support_ticket_messages (ticket_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, ticket_id, author_id, body, created_at`,
		msg.TicketID, msg.AuthorID, msg.Body)
	var created TicketMessage
	if err := row.Scan(&created.ID, &created.TicketID, &created.AuthorID, &created.Body, &created.CreatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status TicketStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE support_tickets SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.ClientID, &t.ShipmentID, &t.Subject, &t.Status,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
