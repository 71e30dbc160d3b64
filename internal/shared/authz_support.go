package shared

// Support ticket permissions declared for the authorization gate.
const (
	PermSupportRead    = "support:read"
	PermSupportReadOwn = "support:read:own"
	PermSupportWrite   = "support:write"
)

// SupportScopes lists all permissions related to support tickets.
func SupportScopes() []string {
	return []string{
		PermSupportRead,
		PermSupportReadOwn,
		PermSupportWrite,
	}
}

// AllScopes returns the full closed permission vocabulary, wildcard excluded.
func AllScopes() []string {
	out := CoreScopes()
	out = append(out, ShipmentScopes()...)
	out = append(out, TrackingScopes()...)
	out = append(out, BillingScopes()...)
	return append(out, SupportScopes()...)
}
