// internal/app/features/settingsapi/routes.go
package settingsapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/orgchart/internal/app/system/auth"
)

// MountRoutes attaches the settings endpoints. Reads are public; writes and
// the test email require a signed-in admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/settings", h.GetSettings)

	r.With(auth.RequireAdmin).Post("/api/settings", h.SaveSettings)
	r.With(auth.RequireAdmin).Post("/api/reset-all-settings", h.ResetAll)
	r.With(auth.RequireAdmin).Post("/api/send-test-email", h.SendTestEmail)
}
