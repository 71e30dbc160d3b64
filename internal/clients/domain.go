package clients

import "time"

// Client is a customer account that owns shipments, invoices and tickets.
// Client-typed users are attached to exactly one client account.
type Client struct {
	ID           int64     `json:"id" db:"id"`
	Code         string    `json:"code" db:"code"`
	Name         string    `json:"name" db:"name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	AddressLine1 *string   `json:"address_line1,omitempty" db:"address_line1"`
	AddressLine2 *string   `json:"address_line2,omitempty" db:"address_line2"`
	City         *string   `json:"city,omitempty" db:"city"`
	Country      string    `json:"country" db:"country"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
