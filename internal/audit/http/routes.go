package audithttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/aldercommerce/alder-admin/internal/permissions"
)

// MountRoutes attaches audit routes behind the view gate.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermAuditView))
		r.Get("/", h.handleTimeline)
		r.Get("/export.csv", h.handleExport)
	})
}
