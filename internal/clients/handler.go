package clients

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

// Handler wires client account HTTP endpoints. These are back-office routes,
// reachable only with the clients permissions admin roles carry.
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

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(shared.PermClientsRead))
		r.Get("/clients", h.list)
		r.Get("/clients/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAll(shared.PermClientsWrite))
		r.Post("/clients", h.create)
		r.Put("/clients/{id}", h.update)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListClientsRequest{Limit: 50}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid active filter")
			return
		}
		req.IsActive = &active
	}
	if search := r.URL.Query().Get("q"); search != "" {
		req.Search = &search
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "list clients")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": list, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get client")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	var req CreateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Create(r.Context(), req, p.UserID)
	if err != nil {
		h.respondError(w, err, "create client")
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req UpdateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err, "update client")
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrAlreadyExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate Client", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
