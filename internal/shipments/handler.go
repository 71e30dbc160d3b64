package shipments

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

// Handler wires shipment HTTP endpoints.
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())

	page := shared.ParsePageRequest(r.URL.Query())
	req := ListShipmentsRequest{Limit: page.Limit(), Offset: page.Offset()}
	if status := r.URL.Query().Get("status"); status != "" {
		st := Status(status)
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
		h.respondError(w, err, "list shipments")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"shipments": list, "pagination": page.Meta(total)})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	shipment, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.respondError(w, err, "get shipment")
		return
	}
	httpx.JSON(w, http.StatusOK, shipment)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	var req CreateShipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shipment, err := h.service.Create(r.Context(), req, p.UserID)
	if err != nil {
		h.respondError(w, err, "create shipment")
		return
	}
	httpx.JSON(w, http.StatusCreated, shipment)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req UpdateShipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shipment, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err, "update shipment")
		return
	}
	httpx.JSON(w, http.StatusOK, shipment)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	shipment, err := h.service.UpdateStatus(r.Context(), p, id, Status(req.Status), req.Reason)
	if err != nil {
		h.respondError(w, err, "update shipment status")
		return
	}
	httpx.JSON(w, http.StatusOK, shipment)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	p, _ := authz.PrincipalFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), p)
	if err != nil {
		h.respondError(w, err, "shipment summary")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
