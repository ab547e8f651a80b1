// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the logout endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/logout", h.HandleLogout)
}
