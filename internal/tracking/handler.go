package tracking

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
	"github.com/freightdesk/freightdesk/internal/shipments"
)

// Handler wires tracking event HTTP endpoints.
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

// MountRoutes registers tracking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(shared.PermTrackingRead, shared.PermTrackingReadOwn))
		r.Get("/shipments/{id}/events", h.listEvents)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAll(shared.PermTrackingWrite))
		r.Post("/shipments/{id}/events", h.recordEvent)
		r.Patch("/events/{id}", h.updateEvent)
	})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	shipmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	events, err := h.service.ListEvents(r.Context(), p, shipmentID)
	if err != nil {
		h.respondError(w, err, "list tracking events")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	shipmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req RecordEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ev, err := h.service.RecordEvent(r.Context(), p, shipmentID, req)
	if err != nil {
		h.respondError(w, err, "record tracking event")
		return
	}
	httpx.JSON(w, http.StatusCreated, ev)
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req UpdateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ev, err := h.service.UpdateEvent(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err, "update tracking event")
		return
	}
	httpx.JSON(w, http.StatusOK, ev)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, shipments.ErrNotFound), errors.Is(err, ErrEventNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
