// internal/app/features/directory/handler.go
//
// Package directory serves the cached employee list as a MicroSIP phone
// directory, so desk softphones can point their contacts URL at the chart.
package directory

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/exports"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// SettingsSource yields the saved settings; custom directory contacts come
// from there.
type SettingsSource interface {
	Get(ctx context.Context) (models.OrgSettings, error)
}

// Handler serves the phone directory.
type Handler struct {
	Reports  *reportcache.Manager
	Settings SettingsSource
	Log      *zap.Logger
}

// NewHandler constructs a directory Handler.
func NewHandler(reports *reportcache.Manager, settings SettingsSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Reports: reports, Settings: settings, Log: logger}
}

// Serve handles GET /api/directory/microsip. Softphones poll this URL, so
// an empty cache yields an empty directory rather than an error.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Warn("failed to load settings for directory", zap.Error(err))
		settings = models.DefaultOrgSettings()
	}

	var employees []*models.Employee
	if _, err := h.Reports.GetJSON(ctx, reportcache.KeyEmployees, &employees); err != nil {
		h.Log.Error("failed to load employee snapshot", zap.Error(err))
		http.Error(w, "directory unavailable", http.StatusInternalServerError)
		return
	}

	items := exports.BuildDirectoryItems(employees, settings)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := exports.WriteMicroSIPXML(w, items); err != nil {
		h.Log.Error("failed to write directory XML", zap.Error(err))
	}
}
