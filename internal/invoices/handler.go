package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/freightdesk/freightdesk/internal/authz"
	"github.com/freightdesk/freightdesk/internal/platform/httpx"
	"github.com/freightdesk/freightdesk/internal/shared"
)

// Handler wires invoice HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      authz.Gate
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, gate authz.Gate) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		validator: validator.New(),
	}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(shared.PermInvoicesRead, shared.PermInvoicesReadOwn))
		r.Get("/invoices", h.list)
		r.Get("/invoices/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAll(shared.PermInvoicesWrite))
		r.Post("/invoices", h.create)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	page := shared.ParsePageRequest(r.URL.Query())
	req := ListInvoicesRequest{Limit: page.Limit(), Offset: page.Offset()}
	if status := r.URL.Query().Get("status"); status != "" {
		st := InvoiceStatus(status)
		if !st.IsValid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status")
			return
		}
		req.Status = &st
	}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client_id")
			return
		}
		req.ClientID = &id
	}

	list, total, err := h.service.List(r.Context(), p, req)
	if err != nil {
		h.respondError(w, err, "list invoices")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": list, "pagination": page.Meta(total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	inv, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.respondError(w, err, "get invoice")
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	inv, err := h.service.Create(r.Context(), req, p.UserID)
	if err != nil {
		h.respondError(w, err, "create invoice")
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
