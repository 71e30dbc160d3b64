package shipments

import "time"

// Status represents the coarse shipment lifecycle.
type Status string

const (
	StatusQuoted    Status = "quoted"
	StatusConfirmed Status = "confirmed"
	StatusInTransit Status = "in_transit"
	StatusCustoms   Status = "customs"
	StatusOnHold    Status = "on_hold"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is part of the lifecycle.
func (s Status) IsValid() bool {
	switch s {
	case StatusQuoted, StatusConfirmed, StatusInTransit, StatusCustoms, StatusOnHold, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// AllStatuses lists every lifecycle status in order.
func AllStatuses() []Status {
	return []Status{
		StatusQuoted,
		StatusConfirmed,
		StatusInTransit,
		StatusCustoms,
		StatusOnHold,
		StatusDelivered,
		StatusCancelled,
	}
}

// TransportMode identifies how the cargo moves.
type TransportMode string

const (
	ModeSea  TransportMode = "sea"
	ModeAir  TransportMode = "air"
	ModeRoad TransportMode = "road"
)

// IsValid checks if the mode is known.
func (m TransportMode) IsValid() bool {
	return m == ModeSea || m == ModeAir || m == ModeRoad
}

// Shipment represents one consignment moving for a client.
type Shipment struct {
	ID             int64         `json:"id" db:"id"`
	Reference      string        `json:"reference" db:"reference"`
	ClientID       int64         `json:"client_id" db:"client_id"`
	Origin         string        `json:"origin" db:"origin"`
	Destination    string        `json:"destination" db:"destination"`
	Mode           TransportMode `json:"mode" db:"mode"`
	Status         Status        `json:"status" db:"status"`
	Carrier        *string       `json:"carrier,omitempty" db:"carrier"`
	TrackingNumber *string       `json:"tracking_number,omitempty" db:"tracking_number"`
	ETD            *time.Time    `json:"etd,omitempty" db:"etd"`
	ETA            *time.Time    `json:"eta,omitempty" db:"eta"`
	Notes          *string       `json:"notes,omitempty" db:"notes"`
	CreatedBy      int64         `json:"created_by" db:"created_by"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// ShipmentWithClient includes joined client data for listings.
type ShipmentWithClient struct {
	Shipment
	ClientName string `json:"client_name" db:"client_name"`
}

// StatusSummary holds per-status shipment counts.
type StatusSummary struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}
