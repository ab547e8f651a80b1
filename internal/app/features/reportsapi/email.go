// internal/app/features/reportsapi/email.go
package reportsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/exports"
	"github.com/dalemusser/orgchart/internal/app/system/mailer"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// MailSender delivers the report summary email.
type MailSender interface {
	Send(email mailer.Email) error
}

type emailReportRequest struct {
	Recipients string `json:"recipients"`
}

// EmailReport handles POST /api/email-report. It mails a summary of the
// latest completed sync (employee and missing-manager counts) with the
// missing-manager spreadsheet attached.
func (h *Handler) EmailReport(w http.ResponseWriter, r *http.Request) {
	if h.Mail == nil || !h.MailCfg.Configured() {
		respondError(w, http.StatusBadRequest, "Email is not configured")
		return
	}

	var req emailReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	recipients := mailer.ParseRecipients(req.Recipients)
	if len(recipients) == 0 {
		respondError(w, http.StatusBadRequest, "At least one valid recipient is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	var employees []*models.Employee
	if _, err := h.Reports.GetJSON(ctx, reportcache.KeyEmployees, &employees); err != nil {
		h.Log.Error("failed to load employees for report email", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load report data")
		return
	}
	var missing []models.MissingManagerRecord
	if _, err := h.Reports.GetJSON(ctx, reportcache.KeyMissingManager, &missing); err != nil {
		h.Log.Error("failed to load missing-manager report for email", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load report data")
		return
	}

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("failed to load settings for report email", zap.Error(err))
		settings = models.DefaultOrgSettings()
	}

	generated := h.now().UTC()
	if status, err := h.Status.Get(ctx); err == nil && status.LastSuccessAt != nil {
		generated = status.LastSuccessAt.UTC()
	}

	email := mailer.BuildReportEmail(mailer.ReportEmailData{
		ChartTitle:          settings.ChartTitle,
		EmployeeCount:       len(employees),
		MissingManagerCount: len(missing),
		GeneratedAt:         generated,
		BaseURL:             h.BaseURL,
	})
	email.To = recipients

	if attachment, err := h.missingManagerAttachment(missing, generated); err != nil {
		h.Log.Warn("report email sent without attachment", zap.Error(err))
	} else {
		email.Attachments = append(email.Attachments, attachment)
	}

	if err := h.Mail.Send(email); err != nil {
		h.Log.Error("failed to send report email", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to send report email")
		return
	}

	h.Log.Info("report email sent",
		zap.Int("recipients", len(recipients)),
		zap.Int("employees", len(employees)),
		zap.Int("missing_managers", len(missing)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"recipients": len(recipients),
	})
}

func (h *Handler) missingManagerAttachment(records []models.MissingManagerRecord, generated time.Time) (mailer.Attachment, error) {
	headers := []string{"Name", "Title", "Department", "Email", "Phone",
		"Business Phone", "Location", "Manager", "Reason"}
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{rec.Name, rec.Title, rec.Department, rec.Email, rec.Phone,
			rec.BusinessPhone, rec.Location, rec.ManagerName, exports.ReasonLabel(rec.Reason)}
	}

	file, err := exports.Workbook("Missing Managers", headers, rows, 20)
	if err != nil {
		return mailer.Attachment{}, err
	}
	buf, err := file.WriteToBuffer()
	if err != nil {
		return mailer.Attachment{}, err
	}
	return mailer.Attachment{
		Filename: "missing-managers-" + generated.Format("2006-01-02") + ".xlsx",
		MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:  buf.Bytes(),
	}, nil
}
