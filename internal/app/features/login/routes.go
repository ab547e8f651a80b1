// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the login endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.HandleLoginPost)
}
