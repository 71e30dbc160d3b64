package support

import "time"

// TicketStatus represents the support ticket lifecycle.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// IsValid checks if the status is valid.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// Ticket is a support request raised by or on behalf of a client.
type Ticket struct {
	ID         int64        `json:"id" db:"id"`
	ClientID   int64        `json:"client_id" db:"client_id"`
	ShipmentID *int64       `json:"shipment_id,omitempty" db:"shipment_id"`
	Subject    string       `json:"subject" db:"subject"`
	Status     TicketStatus `json:"status" db:"status"`
	CreatedBy  int64        `json:"created_by" db:"created_by"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`

	Messages []TicketMessage `json:"messages,omitempty" db:"-"`
}

// TicketMessage is one entry in a ticket's conversation.
type TicketMessage struct {
	ID        int64     `json:"id" db:"id"`
	TicketID  int64     `json:"ticket_id" db:"ticket_id"`
	AuthorID  int64     `json:"author_id" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateTicketRequest struct {
	ClientID   int64  `json:"client_id" validate:"required,gt=0"`
	ShipmentID *int64 `json:"shipment_id,omitempty"`
	Subject    string `json:"subject" validate:"required,max=200"`
	Body       string `json:"body" validate:"required,max=5000"`
}

type AddMessageRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type ListTicketsRequest struct {
	Status *TicketStatus `json:"status,omitempty"`
	Limit  int           `json:"limit" validate:"gte=0,lte=200"`
	Offset int           `json:"offset" validate:"gte=0"`
}
