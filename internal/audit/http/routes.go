package audithttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/lintaskurir/lintaskurir/internal/auth"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// MountRoutes mendaftarkan route audit timeline.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RolePIC))
		r.Get("/timeline", h.handleTimeline)
		r.Get("/timeline/export", h.handleExport)
	})
}
