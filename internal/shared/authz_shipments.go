package shared

// Shipment and tracking permissions declared for the authorization gate.
const (
	// Shipment permissions
	PermShipmentsRead    = "shipments:read"
	PermShipmentsReadOwn = "shipments:read:own"
	PermShipmentsWrite   = "shipments:write"
	PermShipmentsStatus  = "shipments:status"

	// Tracking event permissions
	PermTrackingRead    = "tracking:read"
	PermTrackingReadOwn = "tracking:read:own"
	PermTrackingWrite   = "tracking:write"
)

// ShipmentScopes lists all permissions related to shipments.
func ShipmentScopes() []string {
	return []string{
		PermShipmentsRead,
		PermShipmentsReadOwn,
		PermShipmentsWrite,
		PermShipmentsStatus,
	}
}

// TrackingScopes lists all permissions related to tracking events.
func TrackingScopes() []string {
	return []string{
		PermTrackingRead,
		PermTrackingReadOwn,
		PermTrackingWrite,
	}
}
