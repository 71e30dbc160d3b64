package tracking

import "github.com/freightdesk/freightdesk/internal/shipments"

// statusEffects is the fixed mapping from event codes to lifecycle statuses.
// Codes absent from the table are informational and leave the shipment
// status unchanged. The wildcard-free table is the single source of truth
// for the projection; nothing else mutates status on the tracking path.
var statusEffects = map[EventCode]shipments.Status{
	EventOrderConfirmed:          shipments.StatusConfirmed,
	EventPickedUp:                shipments.StatusInTransit,
	EventDepartedOriginPort:      shipments.StatusInTransit,
	EventInTransit:               shipments.StatusInTransit,
	EventArrivedDestinationPort:  shipments.StatusInTransit,
	EventOutForDelivery:          shipments.StatusInTransit,
	EventCustomsClearanceStarted: shipments.StatusCustoms,
	EventCustomsHold:             shipments.StatusCustoms,
	EventDelivered:               shipments.StatusDelivered,
	EventDeliveryFailed:          shipments.StatusOnHold,
	EventException:               shipments.StatusOnHold,
}

// Project maps a tracking event onto the shipment lifecycle. It returns the
// status the shipment should move to and whether that is a change. The
// function is pure and deterministic: the same (current, code) pair always
// yields the same result, which makes retries after a compare-and-set
// conflict safe.
//
// Terminal statuses never change here; the caller is responsible for
// rejecting the event write outright.
func Project(current shipments.Status, code EventCode) (shipments.Status, bool) {
	if current.IsTerminal() {
		return current, false
	}
	next, ok := statusEffects[code]
	if !ok {
		return current, false
	}
	if next == current {
		return current, false
	}
	return next, true
}
