package authz

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/freightdesk/freightdesk/internal/platform/httpx"
)

// Gate composes resolver checks into route-level authorization middleware.
// It never mutates the principal; its only observable effect is allow or
// deny. Denied responses are generic, the missing permission goes to logs.
type Gate struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// RequireAll passes only when every permission resolves to allow.
func (g Gate) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if err := g.CheckAll(p, perms...); err != nil {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny passes when at least one permission resolves to allow.
func (g Gate) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if err := g.CheckAny(p, perms...); err != nil {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckAll resolves every permission and fails with the first one missing.
// All entries are evaluated; a blocked grant can sit anywhere in the list.
func (g Gate) CheckAll(p Principal, perms ...string) error {
	missing := ""
	for _, perm := range perms {
		if !g.Resolver.Resolve(p, perm) && missing == "" {
			missing = perm
		}
	}
	if missing != "" {
		if g.Logger != nil {
			g.Logger.Warn("authorization denied",
				slog.Int64("user_id", p.UserID),
				slog.String("missing_permission", missing))
		}
		return fmt.Errorf("%w: missing permission: %s", httpx.ErrForbidden, missing)
	}
	return nil
}

// CheckAny resolves permissions in order and passes on the first allow.
func (g Gate) CheckAny(p Principal, perms ...string) error {
	for _, perm := range perms {
		if g.Resolver.Resolve(p, perm) {
			return nil
		}
	}
	if g.Logger != nil {
		g.Logger.Warn("authorization denied",
			slog.Int64("user_id", p.UserID),
			slog.Any("required_any", perms))
	}
	return fmt.Errorf("%w: none of the required permissions granted", httpx.ErrForbidden)
}
