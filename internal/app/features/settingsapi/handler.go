// internal/app/features/settingsapi/handler.go
//
// Package settingsapi exposes the admin-editable chart settings: read for
// everyone (the client needs colors and display toggles to render), write
// and reset for admins, plus the SMTP test email.
package settingsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/mailer"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// SettingsStore is the persistence surface this feature needs.
type SettingsStore interface {
	Get(ctx context.Context) (models.OrgSettings, error)
	Save(ctx context.Context, settings models.OrgSettings) error
	Reset(ctx context.Context) error
}

// Scheduler is restarted when a save changes the daily update schedule.
type Scheduler interface {
	Restart()
}

// MailSender delivers the test email.
type MailSender interface {
	Send(email mailer.Email) error
}

// Handler holds dependencies for the settings endpoints.
type Handler struct {
	Settings   SettingsStore
	Scheduler  Scheduler
	Mail       MailSender
	MailConfig mailer.Config
	Log        *zap.Logger
	now        func() time.Time
}

// NewHandler constructs a settings Handler.
func NewHandler(settings SettingsStore, scheduler Scheduler, mail MailSender, mailConfig mailer.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Settings:   settings,
		Scheduler:  scheduler,
		Mail:       mail,
		MailConfig: mailConfig,
		Log:        logger,
		now:        time.Now,
	}
}

// GetSettings handles GET /api/settings. A session top-user override is
// overlaid on the saved root so the client renders the session's view.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("failed to load settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to load settings"})
		return
	}
	if email, set := auth.TopUserOverride(r); set {
		settings.TopLevelUserEmail = email
	}
	respondJSON(w, http.StatusOK, settings)
}

// SaveSettings handles POST /api/settings (admin only). The body is a
// partial document merged over the current settings, so the client can send
// only the fields it changed. A change to the daily schedule restarts the
// update scheduler.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("failed to load settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to load settings"})
		return
	}

	previousTime := current.UpdateTime
	previousAuto := current.AutoUpdateEnabled

	// Decoding into the current document gives field-level merge semantics:
	// absent fields keep their saved values.
	if err := json.NewDecoder(r.Body).Decode(&current); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	if err := h.Settings.Save(ctx, current); err != nil {
		h.Log.Error("failed to save settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to save settings"})
		return
	}

	if h.Scheduler != nil &&
		(current.UpdateTime != previousTime || current.AutoUpdateEnabled != previousAuto) {
		h.Log.Info("update schedule changed, restarting scheduler",
			zap.String("updateTime", current.UpdateTime),
			zap.Bool("autoUpdateEnabled", current.AutoUpdateEnabled))
		h.Scheduler.Restart()
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "settings": current})
}

// ResetAll handles POST /api/reset-all-settings (admin only). The saved
// document is deleted and the caller's session override cleared, so the next
// read serves pure defaults.
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Settings.Reset(ctx); err != nil {
		h.Log.Error("failed to reset settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to reset settings"})
		return
	}
	if err := auth.ClearTopUserOverride(w, r); err != nil {
		h.Log.Warn("failed to clear top-user override", zap.Error(err))
	}
	if h.Scheduler != nil {
		h.Scheduler.Restart()
	}
	respondJSON(w, http.StatusOK,
		map[string]any{"success": true, "message": "All settings reset to defaults"})
}

// SendTestEmail handles POST /api/send-test-email (admin only).
func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	if !h.MailConfig.Configured() {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "SMTP is not configured"})
		return
	}

	var body struct {
		Recipients string `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	recipients := mailer.ParseRecipients(body.Recipients)
	if len(recipients) == 0 {
		respondJSON(w, http.StatusBadRequest,
			map[string]string{"error": "No valid recipient addresses"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Warn("failed to load settings for test email", zap.Error(err))
		settings = models.DefaultOrgSettings()
	}

	email := mailer.BuildTestEmail(mailer.TestEmailData{
		ChartTitle:  settings.ChartTitle,
		Server:      h.MailConfig.Server,
		Port:        h.MailConfig.Port,
		FromAddress: h.MailConfig.FromAddress,
		SentAt:      h.now(),
	})
	email.To = recipients

	if err := h.Mail.Send(email); err != nil {
		h.Log.Error("test email failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to send test email: " + err.Error()})
		return
	}
	respondJSON(w, http.StatusOK,
		map[string]any{"success": true, "message": "Test email sent"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
