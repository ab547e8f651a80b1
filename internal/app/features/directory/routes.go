// internal/app/features/directory/routes.go
package directory

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the phone directory endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/directory/microsip", h.Serve)
}
