// internal/app/features/photo/routes.go
package photo

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the photo endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/photo/{userID}", h.Serve)
}
