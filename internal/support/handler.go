package support

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

// Handler wires support ticket HTTP endpoints.
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

// MountRoutes registers support routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(shared.PermSupportRead, shared.PermSupportReadOwn))
		r.Get("/tickets", h.list)
		r.Get("/tickets/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAll(shared.PermSupportWrite))
		r.Post("/tickets", h.create)
		r.Post("/tickets/{id}/messages", h.addMessage)
		r.Post("/tickets/{id}/close", h.close)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	page := shared.ParsePageRequest(r.URL.Query())
	req := ListTicketsRequest{Limit: page.Limit(), Offset: page.Offset()}
	if status := r.URL.Query().Get("status"); status != "" {
		st := TicketStatus(status)
		req.Status = &st
	}

	list, total, err := h.service.List(r.Context(), p, req)
	if err != nil {
		h.respondError(w, err, "list tickets")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tickets": list, "pagination": page.Meta(total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	t, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.respondError(w, err, "get ticket")
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	var req CreateTicketRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.Create(r.Context(), p, req)
	if err != nil {
		h.respondError(w, err, "create ticket")
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) addMessage(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req AddMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	msg, err := h.service.AddMessage(r.Context(), p, id, req)
	if err != nil {
		h.respondError(w, err, "add ticket message")
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Close(r.Context(), p, id); err != nil {
		h.respondError(w, err, "close ticket")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "closed"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if h.logger != nil && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrForbidden) &&
		!errors.Is(err, httpx.ErrTerminalState) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
