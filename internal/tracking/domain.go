package tracking

import (
	"time"

	"github.com/freightdesk/freightdesk/internal/shipments"
)

// EventCode is the fine-grained tracking event vocabulary. It is larger than
// the shipment lifecycle; several codes share a lifecycle status and some
// carry no status effect at all.
type EventCode string

const (
	EventOrderConfirmed          EventCode = "order_confirmed"
	EventPickedUp                EventCode = "picked_up"
	EventDepartedOriginPort      EventCode = "departed_origin_port"
	EventInTransit               EventCode = "in_transit"
	EventArrivedDestinationPort  EventCode = "arrived_destination_port"
	EventOutForDelivery          EventCode = "out_for_delivery"
	EventCustomsClearanceStarted EventCode = "customs_clearance_started"
	EventCustomsHold             EventCode = "customs_hold"
	EventDelivered               EventCode = "delivered"
	EventDeliveryFailed          EventCode = "delivery_failed"
	EventException               EventCode = "exception"
	EventDelayed                 EventCode = "delayed"
	EventLocationUpdate          EventCode = "location_update"
)

// IsValid checks if the code belongs to the known vocabulary.
func (c EventCode) IsValid() bool {
	switch c {
	case EventOrderConfirmed, EventPickedUp, EventDepartedOriginPort, EventInTransit,
		EventArrivedDestinationPort, EventOutForDelivery, EventCustomsClearanceStarted,
		EventCustomsHold, EventDelivered, EventDeliveryFailed, EventException,
		EventDelayed, EventLocationUpdate:
		return true
	default:
		return false
	}
}

// TrackingEvent is one recorded milestone for a shipment. Once its status
// effect has been applied the event is immutable in effect: edits may touch
// the descriptive fields but never replay or revert the projection.
type TrackingEvent struct {
	ID            int64             `json:"id" db:"id"`
	PublicID      string            `json:"public_id" db:"public_id"`
	ShipmentID    int64             `json:"shipment_id" db:"shipment_id"`
	Code          EventCode         `json:"code" db:"code"`
	Description   *string           `json:"description,omitempty" db:"description"`
	Location      *string           `json:"location,omitempty" db:"location"`
	OccurredAt    time.Time         `json:"occurred_at" db:"occurred_at"`
	RecordedBy    int64             `json:"recorded_by" db:"recorded_by"`
	AppliedStatus *shipments.Status `json:"applied_status,omitempty" db:"applied_status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}

type RecordEventRequest struct {
	Code        string     `json:"code" validate:"required"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=120"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}

type UpdateEventRequest struct {
	Description *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=120"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}
