package authz

import (
	"fmt"
	"log/slog"
)

// ResourceKind names a resource family that defines an own-scoped read
// permission variant.
type ResourceKind string

const (
	KindShipments ResourceKind = "shipments"
	KindInvoices  ResourceKind = "invoices"
	KindTracking  ResourceKind = "tracking"
	KindSupport   ResourceKind = "support"
)

// ReadPermission returns the unrestricted read permission for the kind.
func (k ResourceKind) ReadPermission() string {
	return string(k) + ":read"
}

// OwnReadPermission returns the own-scoped read permission for the kind.
func (k ResourceKind) OwnReadPermission() string {
	return string(k) + ":read:own"
}

// Scope is a query-shape decision: either no restriction, or restriction to
// records owned by one client. Data-access collaborators must apply it as a
// filter predicate before executing their query, never ad hoc.
type Scope struct {
	restricted bool
	clientID   int64
}

// Unrestricted returns the scope imposing no ownership filter.
func Unrestricted() Scope {
	return Scope{}
}

// OwnedBy returns the scope restricting results to the given client.
func OwnedBy(clientID int64) Scope {
	return Scope{restricted: true, clientID: clientID}
}

// Restricted reports the owning client id when the scope is restricted.
func (s Scope) Restricted() (int64, bool) {
	return s.clientID, s.restricted
}

// ScopeFor decides how queries for the given resource kind must be narrowed
// for the principal.
//
// A client-type principal holding only the own-scoped read variant is
// restricted to its own client's records. Selecting an owned scope without a
// client id on file is a configuration fault and denies the request; falling
// back to unrestricted there would be an access-control hole.
func (r *Resolver) ScopeFor(p Principal, kind ResourceKind) (Scope, error) {
	if p.UserType != UserTypeClient {
		return Unrestricted(), nil
	}
	if r.Resolve(p, kind.ReadPermission()) {
		return Unrestricted(), nil
	}
	if !r.Resolve(p, kind.OwnReadPermission()) {
		return Unrestricted(), nil
	}
	if p.ClientID == nil {
		if r.logger != nil {
			r.logger.Error("own-scoped principal has no client id",
				slog.Int64("user_id", p.UserID),
				slog.String("kind", string(kind)))
		}
		return Scope{}, fmt.Errorf("%w: principal %d has no client id for %s scope", ErrInvalidConfiguration, p.UserID, kind)
	}
	return OwnedBy(*p.ClientID), nil
}
