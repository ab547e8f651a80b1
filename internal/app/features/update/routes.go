// internal/app/features/update/routes.go
package update

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/orgchart/internal/app/system/auth"
)

// MountRoutes attaches the update endpoints; both are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(auth.RequireAdmin).Post("/api/update-now", h.UpdateNow)
	r.With(auth.RequireAdmin).Get("/api/update-status", h.UpdateStatus)
}
