package shipments

import (
	"github.com/go-chi/chi/v5"

	"github.com/freightdesk/freightdesk/internal/shared"
)

// MountRoutes registers shipment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAny(shared.PermShipmentsRead, shared.PermShipmentsReadOwn))
		r.Get("/shipments", h.list)
		r.Get("/shipments/summary", h.summary)
		r.Get("/shipments/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAll(shared.PermShipmentsWrite))
		r.Post("/shipments", h.create)
		r.Put("/shipments/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.gate.RequireAll(shared.PermShipmentsWrite, shared.PermShipmentsStatus))
		r.Post("/shipments/{id}/status", h.updateStatus)
	})
}
