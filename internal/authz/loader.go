package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shared"
)

// Loader resolves the session user into an immutable Principal once per
// request. Role and grant data are fetched here and nowhere else; downstream
// code only ever sees the finished value.
type Loader struct {
	repo   Repository
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(repo Repository, logger *slog.Logger) *Loader {
	return &Loader{repo: repo, logger: logger}
}

// Load builds the Principal for a user id. A missing or unresolvable role is
// not an error to the caller; it produces a deny-all principal and an
// operator log entry.
func (l *Loader) Load(ctx context.Context, userID int64) (Principal, error) {
	rec, err := l.repo.GetPrincipalRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Principal{}, fmt.Errorf("%w: user %d", ErrUnauthenticated, userID)
		}
		return Principal{}, err
	}
	if !rec.IsActive {
		return Principal{}, fmt.Errorf("%w: user %d inactive", ErrUnauthenticated, userID)
	}

	var role *Role
	if rec.RoleName != "" {
		fetched, err := l.repo.GetRoleByName(ctx, rec.RoleName)
		switch {
		case err == nil:
			role = &fetched
		case errors.Is(err, shared.ErrNotFound):
			if l.logger != nil {
				l.logger.Error("user references unknown role",
					slog.Int64("user_id", rec.UserID),
					slog.String("role", rec.RoleName))
			}
		default:
			return Principal{}, err
		}
	} else if l.logger != nil {
		l.logger.Error("user has no role assigned", slog.Int64("user_id", rec.UserID))
	}

	return NewPrincipal(rec.UserID, rec.Email, rec.UserType, role,
		rec.OverrideGrants, rec.BlockedGrants, rec.ClientID), nil
}

// Middleware resolves the principal for authenticated requests and rejects
// the rest. It expects the session middleware to have run already.
func (l *Loader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if l.logger != nil {
				l.logger.Error("malformed session user id", slog.String("value", raw))
			}
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}

		principal, err := l.Load(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if l.logger != nil {
				l.logger.Error("load principal", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
