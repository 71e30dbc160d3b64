package authz

import (
	"log/slog"
	"sort"

	"github.com/freightdesk/freightdesk/internal/shared"
)

// Resolver answers permission questions for a resolved principal. Denies are
// ordinary return values, never errors; the only exceptional condition is a
// missing role, which resolves to deny-all and is logged for operators.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve reports whether the principal holds the permission.
//
// Evaluation order is fixed: explicit block, explicit override, role
// resolution, role wildcard, exact role membership. A permission present in
// both the blocked and override lists is denied.
func (r *Resolver) Resolve(p Principal, permission string) bool {
	if permission == "" {
		return false
	}
	if p.IsBlocked(permission) {
		return false
	}
	if p.HasOverride(permission) {
		return true
	}
	role, ok := p.Role()
	if !ok {
		if r.logger != nil {
			r.logger.Error("principal role unresolvable, denying",
				slog.Int64("user_id", p.UserID),
				slog.String("permission", permission))
		}
		return false
	}
	if role.HasWildcard() {
		return true
	}
	return role.Contains(permission)
}

// EffectivePermissions returns the principal's full permission set. A role
// carrying the wildcard reports only the wildcard itself, since the concrete
// set is open-ended. A principal with no resolvable role still reports its
// override grants, minus any blocks, matching how Resolve evaluates them.
func (r *Resolver) EffectivePermissions(p Principal) []string {
	set := make(map[string]struct{})
	role, ok := p.Role()
	if ok {
		if role.HasWildcard() {
			return []string{shared.PermAll}
		}
		for _, perm := range role.Permissions {
			set[perm] = struct{}{}
		}
	}
	for _, perm := range p.Overrides() {
		set[perm] = struct{}{}
	}
	for _, perm := range p.Blocked() {
		delete(set, perm)
	}
	out := make([]string, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}
