package shipments

import "time"

type CreateShipmentRequest struct {
	ClientID       int64      `json:"client_id" validate:"required,gt=0"`
	Origin         string     `json:"origin" validate:"required,max=120"`
	Destination    string     `json:"destination" validate:"required,max=120"`
	Mode           string     `json:"mode" validate:"required,oneof=sea air road"`
	Carrier        *string    `json:"carrier,omitempty" validate:"omitempty,max=120"`
	TrackingNumber *string    `json:"tracking_number,omitempty" validate:"omitempty,max=64"`
	ETD            *time.Time `json:"etd,omitempty"`
	ETA            *time.Time `json:"eta,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

type UpdateShipmentRequest struct {
	Origin         *string    `json:"origin,omitempty" validate:"omitempty,max=120"`
	Destination    *string    `json:"destination,omitempty" validate:"omitempty,max=120"`
	Carrier        *string    `json:"carrier,omitempty" validate:"omitempty,max=120"`
	TrackingNumber *string    `json:"tracking_number,omitempty" validate:"omitempty,max=64"`
	ETD            *time.Time `json:"etd,omitempty"`
	ETA            *time.Time `json:"eta,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=255"`
}

type ListShipmentsRequest struct {
	Status   *Status `json:"status,omitempty"`
	ClientID *int64  `json:"client_id,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=200"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
