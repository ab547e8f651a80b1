// internal/app/features/update/handler.go
//
// Package update exposes the manual data refresh: an admin can kick off a
// run without waiting for the schedule, and anyone signed in can poll its
// progress.
package update

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// RunFunc starts one refresh attributed to source.
type RunFunc func(ctx context.Context, source string) error

// StatusSource reads the refresh lifecycle document.
type StatusSource interface {
	Get(ctx context.Context) (models.UpdateStatus, error)
}

// Handler holds dependencies for the update endpoints.
type Handler struct {
	Run    RunFunc
	Status StatusSource
	Log    *zap.Logger
}

// NewHandler constructs an update Handler.
func NewHandler(run RunFunc, status StatusSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Run: run, Status: status, Log: logger}
}

// UpdateNow handles POST /api/update-now (admin only). The refresh runs in
// the background; the response only acknowledges the start. Overlapping
// requests are harmless because the runner skips when the lock is held.
func (h *Handler) UpdateNow(w http.ResponseWriter, r *http.Request) {
	go func() {
		// Detached from the request so the refresh survives the response.
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Refresh())
		defer cancel()
		if err := h.Run(ctx, "manual"); err != nil {
			h.Log.Error("manual update failed", zap.Error(err))
		}
	}()

	respondJSON(w, http.StatusOK, map[string]string{"message": "Update started"})
}

// UpdateStatus handles GET /api/update-status (admin only).
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	status, err := h.Status.Get(ctx)
	if err != nil {
		h.Log.Error("failed to read update status", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to read update status"})
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
