// internal/app/features/reportsapi/handler.go
//
// Package reportsapi serves the admin audit reports derived from the cached
// directory snapshot: missing managers, disabled users, recent hires,
// sign-in activity, and the filtered-out accounts. Every report has a JSON
// endpoint and a matching spreadsheet export, both reading the same cached
// blob through the same query filters.
package reportsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/exports"
	"github.com/dalemusser/orgchart/internal/app/system/mailer"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// SettingsSource yields the saved settings; the org chart export honors its
// column and row visibility rules.
type SettingsSource interface {
	Get(ctx context.Context) (models.OrgSettings, error)
}

// StatusSource reports when the data behind the reports was last refreshed.
type StatusSource interface {
	Get(ctx context.Context) (models.UpdateStatus, error)
}

// Handler holds dependencies for the report endpoints.
type Handler struct {
	Reports  *reportcache.Manager
	Settings SettingsSource
	Status   StatusSource
	Log      *zap.Logger
	now      func() time.Time

	// Mail, MailCfg, and BaseURL back the report summary email; Mail may
	// stay nil when SMTP is not configured.
	Mail    MailSender
	MailCfg mailer.Config
	BaseURL string
}

// NewHandler constructs a reports Handler.
func NewHandler(reports *reportcache.Manager, settings SettingsSource, status StatusSource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Reports:  reports,
		Settings: settings,
		Status:   status,
		Log:      logger,
		now:      time.Now,
	}
}

// reportResponse is the envelope every JSON report shares.
type reportResponse struct {
	Records        any            `json:"records"`
	Count          int            `json:"count"`
	GeneratedAt    string         `json:"generatedAt,omitempty"`
	AppliedFilters map[string]any `json:"appliedFilters"`
}

/* ── missing manager ─────────────────────────────────────────────────── */

func (h *Handler) MissingManager(w http.ResponseWriter, r *http.Request) {
	records, ok := h.missingManagerRecords(w, r)
	if !ok {
		return
	}
	f := parseMissingManagerFilters(r.URL.Query())
	h.respondReport(w, r, filterSlice(records, f.matchMissing), f.applied())
}

func (h *Handler) ExportMissingManager(w http.ResponseWriter, r *http.Request) {
	records, ok := h.missingManagerRecords(w, r)
	if !ok {
		return
	}
	f := parseMissingManagerFilters(r.URL.Query())
	matched := filterSlice(records, f.matchMissing)

	headers := []string{"Name", "Title", "Department", "Email", "Phone",
		"Business Phone", "Location", "Manager", "Reason"}
	rows := make([][]any, len(matched))
	for i, rec := range matched {
		rows[i] = []any{rec.Name, rec.Title, rec.Department, rec.Email, rec.Phone,
			rec.BusinessPhone, rec.Location, rec.ManagerName, exports.ReasonLabel(rec.Reason)}
	}
	h.sendWorkbook(w, "Missing Managers", "missing-managers", headers, rows)
}

func (h *Handler) missingManagerRecords(w http.ResponseWriter, r *http.Request) ([]models.MissingManagerRecord, bool) {
	var records []models.MissingManagerRecord
	ok := h.loadReport(w, r, reportcache.KeyMissingManager, &records)
	return records, ok
}

/* ── disabled users ──────────────────────────────────────────────────── */

func (h *Handler) DisabledUsers(w http.ResponseWriter, r *http.Request) {
	h.serveDisabled(w, r, reportcache.KeyDisabledUsers, true)
}

func (h *Handler) ExportDisabledUsers(w http.ResponseWriter, r *http.Request) {
	h.exportDisabled(w, r, reportcache.KeyDisabledUsers, true, "Disabled Users", "disabled-users")
}

// DisabledThisYear serves accounts first seen disabled inside the recent
// window computed at refresh time.
func (h *Handler) DisabledThisYear(w http.ResponseWriter, r *http.Request) {
	h.serveDisabled(w, r, reportcache.KeyRecentlyDisabled, false)
}

func (h *Handler) ExportDisabledThisYear(w http.ResponseWriter, r *http.Request) {
	h.exportDisabled(w, r, reportcache.KeyRecentlyDisabled, false, "Disabled This Year", "disabled-this-year")
}

func (h *Handler) DisabledLicensed(w http.ResponseWriter, r *http.Request) {
	h.serveDisabled(w, r, reportcache.KeyDisabledLicensed, false)
}

func (h *Handler) ExportDisabledLicensed(w http.ResponseWriter, r *http.Request) {
	h.exportDisabled(w, r, reportcache.KeyDisabledLicensed, false, "Disabled Licensed Users", "disabled-licensed")
}

func (h *Handler) serveDisabled(w http.ResponseWriter, r *http.Request, key string, licensedOnlyDefault bool) {
	var records []models.DisabledUserRecord
	if !h.loadReport(w, r, key, &records) {
		return
	}
	f := parseDisabledFilters(r.URL.Query(), licensedOnlyDefault)
	h.respondReport(w, r, filterSlice(records, f.match), f.applied())
}

func (h *Handler) exportDisabled(w http.ResponseWriter, r *http.Request, key string, licensedOnlyDefault bool, sheet, prefix string) {
	var records []models.DisabledUserRecord
	if !h.loadReport(w, r, key, &records) {
		return
	}
	f := parseDisabledFilters(r.URL.Query(), licensedOnlyDefault)
	matched := filterSlice(records, f.match)

	headers := []string{"Name", "Title", "Department", "Email", "User Principal Name",
		"Phone", "Location", "License Count", "Licenses", "Hire Date",
		"Disabled Date", "Days Disabled"}
	rows := make([][]any, len(matched))
	for i, rec := range matched {
		rows[i] = []any{rec.Name, rec.Title, rec.Department, rec.Email, rec.UserPrincipalName,
			rec.Phone, rec.Location, rec.LicenseCount, strings.Join(rec.LicenseSkus, ", "),
			exports.FormatHireDate(rec.HireDate), exports.FormatHireDate(rec.DisabledDate),
			intCell(rec.DisabledDays)}
	}
	h.sendWorkbook(w, sheet, prefix, headers, rows)
}

/* ── recent hires ────────────────────────────────────────────────────── */

func (h *Handler) HiredThisYear(w http.ResponseWriter, r *http.Request) {
	records, ok := h.hiredRecords(w, r)
	if !ok {
		return
	}
	days := intParam(r.URL.Query(), "days")
	matched := filterHired(records, days)
	applied := map[string]any{}
	if days != nil {
		applied["days"] = *days
	}
	h.respondReport(w, r, matched, applied)
}

func (h *Handler) ExportHiredThisYear(w http.ResponseWriter, r *http.Request) {
	records, ok := h.hiredRecords(w, r)
	if !ok {
		return
	}
	matched := filterHired(records, intParam(r.URL.Query(), "days"))

	headers := []string{"Name", "Title", "Department", "Email", "Phone",
		"Location", "Hire Date", "Days Since Hire", "Manager"}
	rows := make([][]any, len(matched))
	for i, rec := range matched {
		rows[i] = []any{rec.Name, rec.Title, rec.Department, rec.Email, rec.Phone,
			rec.Location, exports.FormatHireDate(rec.HireDate), intCell(rec.DaysSinceHire),
			rec.ManagerName}
	}
	h.sendWorkbook(w, "Hired This Year", "hired-this-year", headers, rows)
}

func (h *Handler) hiredRecords(w http.ResponseWriter, r *http.Request) ([]models.RecentHireRecord, bool) {
	var records []models.RecentHireRecord
	ok := h.loadReport(w, r, reportcache.KeyRecentlyHired, &records)
	return records, ok
}

func filterHired(records []models.RecentHireRecord, days *int) []models.RecentHireRecord {
	if days == nil {
		if records == nil {
			return []models.RecentHireRecord{}
		}
		return records
	}
	return filterSlice(records, func(rec models.RecentHireRecord) bool {
		return rec.DaysSinceHire != nil && *rec.DaysSinceHire <= *days
	})
}

/* ── sign-in activity ────────────────────────────────────────────────── */

func (h *Handler) LastLogins(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loginRecords(w, r)
	if !ok {
		return
	}
	f := parseLastLoginFilters(r.URL.Query())
	h.respondReport(w, r, filterSlice(records, f.matchLastLogin), f.appliedWithSignIn())
}

func (h *Handler) ExportLastLogins(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loginRecords(w, r)
	if !ok {
		return
	}
	f := parseLastLoginFilters(r.URL.Query())
	matched := filterSlice(records, f.matchLastLogin)

	headers := []string{"Name", "Title", "Department", "Email", "Enabled",
		"User Type", "License Count", "Last Activity", "Days Inactive",
		"Last Interactive Sign-In", "Last Non-Interactive Sign-In", "Never Signed In"}
	rows := make([][]any, len(matched))
	for i, rec := range matched {
		rows[i] = []any{rec.Name, rec.Title, rec.Department, rec.Email,
			yesNo(rec.AccountEnabled), rec.UserType, rec.LicenseCount,
			rec.LastActivityDate, intCell(rec.DaysSinceLastActivity),
			rec.LastInteractiveSignIn, rec.LastNonInteractiveSignIn,
			yesNo(rec.NeverSignedIn)}
	}
	h.sendWorkbook(w, "Last Sign-In Activity", "last-logins", headers, rows)
}

func (h *Handler) loginRecords(w http.ResponseWriter, r *http.Request) ([]models.LastLoginRecord, bool) {
	var records []models.LastLoginRecord
	ok := h.loadReport(w, r, reportcache.KeyLastLogins, &records)
	return records, ok
}

/* ── filtered users ──────────────────────────────────────────────────── */

func (h *Handler) FilteredUsers(w http.ResponseWriter, r *http.Request) {
	h.serveFiltered(w, r, reportcache.KeyFilteredUsers)
}

func (h *Handler) ExportFilteredUsers(w http.ResponseWriter, r *http.Request) {
	h.exportFiltered(w, r, reportcache.KeyFilteredUsers, "Filtered Users", "filtered-users")
}

// FilteredLicensed serves the filtered-out accounts that still consume a
// license, the subset that usually costs money by accident.
func (h *Handler) FilteredLicensed(w http.ResponseWriter, r *http.Request) {
	h.serveFiltered(w, r, reportcache.KeyFilteredLicensed)
}

func (h *Handler) ExportFilteredLicensed(w http.ResponseWriter, r *http.Request) {
	h.exportFiltered(w, r, reportcache.KeyFilteredLicensed, "Filtered Licensed Users", "filtered-licensed")
}

func (h *Handler) serveFiltered(w http.ResponseWriter, r *http.Request, key string) {
	var records []*models.Employee
	if !h.loadReport(w, r, key, &records) {
		return
	}
	f := parseFilteredUsersFilters(r.URL.Query())
	h.respondReport(w, r, filterSlice(records, f.matchEmployee), f.applied())
}

func (h *Handler) exportFiltered(w http.ResponseWriter, r *http.Request, key, sheet, prefix string) {
	var records []*models.Employee
	if !h.loadReport(w, r, key, &records) {
		return
	}
	f := parseFilteredUsersFilters(r.URL.Query())
	matched := filterSlice(records, f.matchEmployee)

	headers := []string{"Name", "Title", "Department", "Email", "User Principal Name",
		"Enabled", "User Type", "License Count", "Licenses", "Filter Reasons"}
	rows := make([][]any, len(matched))
	for i, rec := range matched {
		rows[i] = []any{rec.Name, rec.Title, rec.Department, rec.Email, rec.UserPrincipalName,
			yesNo(rec.AccountEnabled), rec.UserType, rec.LicenseCount,
			strings.Join(rec.LicenseSkus, ", "), filterReasonText(rec.FilterReasons)}
	}
	h.sendWorkbook(w, sheet, prefix, headers, rows)
}

func filterReasonText(reasons []models.FilterReason) string {
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = string(reason)
	}
	return strings.Join(parts, ", ")
}

/* ── org chart export ────────────────────────────────────────────────── */

// ExportOrgChart handles GET /api/export-xlsx. Open to viewers; admin-only
// columns are included only when the caller is signed in.
func (h *Handler) ExportOrgChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("failed to load settings for export", zap.Error(err))
		settings = models.DefaultOrgSettings()
	}

	var root models.Employee
	found, err := h.Reports.GetJSON(ctx, reportcache.KeyHierarchy, &root)
	if err != nil {
		h.Log.Error("failed to load hierarchy for export", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load report data")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "No organization data available")
		return
	}

	_, isAdmin := auth.CurrentUser(r)
	file, err := exports.OrgChartWorkbook(&root, settings, isAdmin)
	if err != nil {
		h.Log.Error("failed to build org chart workbook", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to build spreadsheet")
		return
	}
	h.streamWorkbook(w, file, "org-chart")
}

/* ── shared plumbing ─────────────────────────────────────────────────── */

// loadReport decodes a cached report into out. A miss after refresh leaves
// out at its zero value, which serves as an empty report.
func (h *Handler) loadReport(w http.ResponseWriter, r *http.Request, key string, out any) bool {
	// A cache miss triggers a full data refresh, so the budget is generous.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	if _, err := h.Reports.GetJSON(ctx, key, out); err != nil {
		h.Log.Error("failed to load cached report", zap.String("key", key), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to load report data")
		return false
	}
	return true
}

func (h *Handler) respondReport(w http.ResponseWriter, r *http.Request, records any, applied map[string]any) {
	count := 0
	switch v := records.(type) {
	case []models.MissingManagerRecord:
		count = len(v)
	case []models.DisabledUserRecord:
		count = len(v)
	case []models.RecentHireRecord:
		count = len(v)
	case []models.LastLoginRecord:
		count = len(v)
	case []*models.Employee:
		count = len(v)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reportResponse{
		Records:        records,
		Count:          count,
		GeneratedAt:    h.generatedAt(ctx),
		AppliedFilters: applied,
	})
}

// generatedAt is the completion time of the last successful refresh; empty
// until one has run.
func (h *Handler) generatedAt(ctx context.Context) string {
	status, err := h.Status.Get(ctx)
	if err != nil {
		h.Log.Warn("failed to read update status", zap.Error(err))
		return ""
	}
	if status.LastSuccessAt == nil {
		return ""
	}
	return status.LastSuccessAt.UTC().Format(time.RFC3339)
}

func (h *Handler) sendWorkbook(w http.ResponseWriter, sheet, prefix string, headers []string, rows [][]any) {
	file, err := exports.Workbook(sheet, headers, rows, 20)
	if err != nil {
		h.Log.Error("failed to build workbook", zap.String("sheet", sheet), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to build spreadsheet")
		return
	}
	h.streamWorkbook(w, file, prefix)
}

func (h *Handler) streamWorkbook(w http.ResponseWriter, file *excelize.File, prefix string) {
	filename := fmt.Sprintf("%s-%s.xlsx", prefix, h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := file.Write(w); err != nil {
		h.Log.Error("failed to stream workbook", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// filterSlice keeps the elements matching keep; always non-nil so empty
// reports encode as [] rather than null.
func filterSlice[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func intCell(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
