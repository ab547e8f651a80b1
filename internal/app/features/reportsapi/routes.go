// internal/app/features/reportsapi/routes.go
package reportsapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/orgchart/internal/app/system/auth"
)

// MountRoutes attaches the report endpoints. The audit reports are admin
// only; the org chart export is open and trims admin columns on its own.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/export-xlsx", h.ExportOrgChart)
	r.With(auth.RequireAdmin).Post("/api/email-report", h.EmailReport)

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Get("/missing-manager", h.MissingManager)
		r.Get("/missing-manager/export", h.ExportMissingManager)

		r.Get("/disabled-users", h.DisabledUsers)
		r.Get("/disabled-users/export", h.ExportDisabledUsers)

		r.Get("/disabled-this-year", h.DisabledThisYear)
		r.Get("/disabled-this-year/export", h.ExportDisabledThisYear)

		r.Get("/disabled-licensed", h.DisabledLicensed)
		r.Get("/disabled-licensed/export", h.ExportDisabledLicensed)

		r.Get("/hired-this-year", h.HiredThisYear)
		r.Get("/hired-this-year/export", h.ExportHiredThisYear)

		r.Get("/last-logins", h.LastLogins)
		r.Get("/last-logins/export", h.ExportLastLogins)

		r.Get("/filtered-users", h.FilteredUsers)
		r.Get("/filtered-users/export", h.ExportFilteredUsers)

		r.Get("/filtered-licensed", h.FilteredLicensed)
		r.Get("/filtered-licensed/export", h.ExportFilteredLicensed)
	})
}
