package invoices

import "time"

// InvoiceStatus represents the billing lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft  InvoiceStatus = "DRAFT"
	InvoiceStatusIssued InvoiceStatus = "ISSUED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
	InvoiceStatusVoid   InvoiceStatus = "VOID"
)

// IsValid checks if the status is valid.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusIssued, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	default:
		return false
	}
}

// Invoice bills a client for one shipment.
type Invoice struct {
	ID         int64         `json:"id" db:"id"`
	Number     string        `json:"number" db:"number"`
	ClientID   int64         `json:"client_id" db:"client_id"`
	ShipmentID int64         `json:"shipment_id" db:"shipment_id"`
	Status     InvoiceStatus `json:"status" db:"status"`
	Currency   string        `json:"currency" db:"currency"`
	Amount     float64       `json:"amount" db:"amount"`
	IssuedAt   *time.Time    `json:"issued_at,omitempty" db:"issued_at"`
	DueAt      *time.Time    `json:"due_at,omitempty" db:"due_at"`
	CreatedBy  int64         `json:"created_by" db:"created_by"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

type CreateInvoiceRequest struct {
	ClientID   int64      `json:"client_id" validate:"required,gt=0"`
	ShipmentID int64      `json:"shipment_id" validate:"required,gt=0"`
	Currency   string     `json:"currency" validate:"required,len=3"`
	Amount     float64    `json:"amount" validate:"required,gt=0"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

type ListInvoicesRequest struct {
	Status   *InvoiceStatus `json:"status,omitempty"`
	ClientID *int64         `json:"client_id,omitempty"`
	Limit    int            `json:"limit" validate:"gte=0,lte=200"`
	Offset   int            `json:"offset" validate:"gte=0"`
}
