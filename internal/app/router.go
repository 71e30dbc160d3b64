package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/freightdesk/freightdesk/internal/auth"
	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/clients"
	"github.com/freightdesk/freightdesk/internal/invoices"
	"github.com/freightdesk/freightdesk/internal/observability"
	"github.com/freightdesk/freightdesk/internal/shared"
	"github.com/freightdesk/freightdesk/internal/shipments"
	"github.com/freightdesk/freightdesk/internal/support"
	"github.com/freightdesk/freightdesk/internal/tracking"
	"github.com/freightdesk/freightdesk/internal/users"
	"github.com/freightdesk/freightdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	PrincipalLoader  *authz.Loader
	AuthHandler      *auth.Handler
	RolesHandler     *authz.Handler
	UsersHandler     *users.Handler
	ClientsHandler   *clients.Handler
	ShipmentsHandler *shipments.Handler
	TrackingHandler  *tracking.Handler
	InvoicesHandler  *invoices.Handler
	SupportHandler   *support.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Freightdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(api)
		}

		api.Group(func(protected chi.Router) {
			if params.PrincipalLoader != nil {
				protected.Use(params.PrincipalLoader.Middleware)
			}
			if params.RolesHandler != nil {
				params.RolesHandler.MountRoutes(protected)
			}
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(protected)
			}
			if params.ClientsHandler != nil {
				params.ClientsHandler.MountRoutes(protected)
			}
			if params.ShipmentsHandler != nil {
				params.ShipmentsHandler.MountRoutes(protected)
			}
			if params.TrackingHandler != nil {
				params.TrackingHandler.MountRoutes(protected)
			}
			if params.InvoicesHandler != nil {
				params.InvoicesHandler.MountRoutes(protected)
			}
			if params.SupportHandler != nil {
				params.SupportHandler.MountRoutes(protected)
			}
		})

		if params.JobHandler != nil {
			api.Route("/jobs", func(jr chi.Router) {
				params.JobHandler.MountRoutes(jr)
			})
		}
	})

	return r
}
