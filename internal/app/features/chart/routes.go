// internal/app/features/chart/routes.go
package chart

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/orgchart/internal/app/system/auth"
)

// MountRoutes attaches the chart endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/api/employees", h.Employees)
	r.Get("/api/search", h.Search)
	r.Get("/api/employee/{employeeID}", h.EmployeeByID)
	r.Get("/api/auth-check", h.AuthCheck)
	r.Post("/api/set-top-user", h.SetTopUser)

	r.With(auth.RequireAdmin).Get("/api/metadata/options", h.MetadataOptions)
	r.With(auth.RequireAdmin).Post("/api/set-multiline-enabled", h.SetMultiLineEnabled)
	r.With(auth.RequireAdmin).Get("/api/test-hierarchy/{email}", h.TestHierarchy)
}
