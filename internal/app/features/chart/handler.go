// internal/app/features/chart/handler.go
//
// Package chart serves the org chart data the browser client renders: the
// cached hierarchy, search over it, single-employee lookup, dropdown
// metadata, and the session-scoped top-user override.
package chart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/filters"
	"github.com/dalemusser/orgchart/internal/app/system/graph"
	"github.com/dalemusser/orgchart/internal/app/system/hierarchy"
	"github.com/dalemusser/orgchart/internal/app/system/refresh"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// searchResultLimit caps /api/search responses.
const searchResultLimit = 10

// SettingsStore is the slice of the settings store the chart needs.
type SettingsStore interface {
	Get(ctx context.Context) (models.OrgSettings, error)
	Save(ctx context.Context, settings models.OrgSettings) error
}

// DirectorySource fetches a fresh snapshot; used only by the hierarchy test
// endpoint, which deliberately bypasses the cache.
type DirectorySource interface {
	FetchAllEmployees(ctx context.Context, opts graph.FetchOptions) (*graph.EmployeePartitions, error)
}

// Handler holds dependencies for the chart endpoints.
type Handler struct {
	Reports   *reportcache.Manager
	Settings  SettingsStore
	Directory DirectorySource
	Log       *zap.Logger
	now       func() time.Time
}

// NewHandler constructs a chart Handler.
func NewHandler(reports *reportcache.Manager, settings SettingsStore, directory DirectorySource, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Reports:   reports,
		Settings:  settings,
		Directory: directory,
		Log:       logger,
		now:       time.Now,
	}
}

// Employees handles GET /api/employees. It serves the cached tree, unless
// the session carries a top-user override, in which case the tree is rebuilt
// from the cached flat snapshot around the requested root. The new-employee
// flag is re-derived on every response so it does not go stale between
// refreshes.
func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	// A cache miss triggers a full data refresh, so the budget is generous.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	settings := h.loadSettings(ctx)

	if email, set := auth.TopUserOverride(r); set {
		if root := h.buildWithOverride(ctx, settings, email); root != nil {
			respondJSON(w, http.StatusOK, root)
			return
		}
		h.Log.Warn("top-user override rebuild failed, serving cached tree",
			zap.String("email", email))
	}

	var root models.Employee
	found, err := h.Reports.GetJSON(ctx, reportcache.KeyHierarchy, &root)
	if err != nil {
		h.Log.Error("failed to load cached hierarchy", zap.Error(err))
	}
	if err != nil || !found {
		respondJSON(w, http.StatusOK, noDataPlaceholder())
		return
	}
	refresh.RecomputeNewFlags(&root, settings.NewEmployeeMonths, h.now())
	respondJSON(w, http.StatusOK, &root)
}

// buildWithOverride rebuilds the tree from the flat snapshot with the
// session's root choice. A blank email forces auto-detection.
func (h *Handler) buildWithOverride(ctx context.Context, settings models.OrgSettings, email string) *models.Employee {
	var employees []*models.Employee
	found, err := h.Reports.GetJSON(ctx, reportcache.KeyEmployees, &employees)
	if err != nil {
		h.Log.Error("failed to load employee snapshot", zap.Error(err))
		return nil
	}
	if !found || len(employees) == 0 {
		return nil
	}
	root := hierarchy.Build(employees, hierarchy.OverrideEmail(email),
		settings.TopLevelUserEmail, settings.TopLevelUserID)
	if root != nil {
		refresh.RecomputeNewFlags(root, settings.NewEmployeeMonths, h.now())
	}
	return root
}

// searchResult is the trimmed record returned by /api/search.
type searchResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Email      string `json:"email"`
}

// Search handles GET /api/search?q=…, matching the query as a
// case-insensitive substring of name, title, or department. Queries shorter
// than two characters return an empty list without touching the cache.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if len(query) < 2 {
		respondJSON(w, http.StatusOK, []searchResult{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	results := []searchResult{}
	for _, emp := range hierarchy.Flatten(h.cachedTree(ctx)) {
		if !strings.Contains(strings.ToLower(emp.Name), query) &&
			!strings.Contains(strings.ToLower(emp.Title), query) &&
			!strings.Contains(strings.ToLower(emp.Department), query) {
			continue
		}
		results = append(results, searchResult{
			ID:         emp.ID,
			Name:       emp.Name,
			Title:      emp.Title,
			Department: emp.Department,
			Email:      emp.Email,
		})
		if len(results) == searchResultLimit {
			break
		}
	}
	respondJSON(w, http.StatusOK, results)
}

// EmployeeByID handles GET /api/employee/{employeeID}, returning the node as
// it appears in the current tree, subtree included.
func (h *Handler) EmployeeByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	stack := []*models.Employee{h.cachedTree(ctx)}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		if node.ID == id {
			respondJSON(w, http.StatusOK, node)
			return
		}
		stack = append(stack, node.Children...)
	}
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "Employee not found"})
}

// MetadataOptions handles GET /api/metadata/options (admin only): the
// distinct job titles, departments, and employee labels used to populate the
// settings page pickers.
func (h *Handler) MetadataOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	var employees []*models.Employee
	if _, err := h.Reports.GetJSON(ctx, reportcache.KeyEmployees, &employees); err != nil {
		h.Log.Error("failed to load employee snapshot", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to load employee data"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"jobTitles": hierarchy.UniqueFieldValues(employees,
			func(e *models.Employee) string { return e.Title }),
		"departments": hierarchy.UniqueFieldValues(employees,
			func(e *models.Employee) string { return e.Department }),
		"employees": filters.EmployeeOptionLabels(employees),
	})
}

// SetTopUser handles POST /api/set-top-user. The override is stored in the
// viewer's session only; an empty email switches the session to auto-detect.
// Open to unauthenticated viewers so anyone can re-root their own view.
func (h *Handler) SetTopUser(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	raw, ok := body["topUserEmail"]
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "topUserEmail is required"})
		return
	}
	var email string
	if err := json.Unmarshal(raw, &email); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "topUserEmail must be a string"})
		return
	}

	email = strings.TrimSpace(email)
	if err := auth.SetTopUserOverride(w, r, email); err != nil {
		h.Log.Error("failed to store top-user override", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to save top user"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "topUserEmail": email})
}

// SetMultiLineEnabled handles POST /api/set-multiline-enabled (admin only),
// a single-field shortcut the chart toolbar uses without opening settings.
func (h *Handler) SetMultiLineEnabled(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	raw, ok := body["multiLineChildrenEnabled"]
	if !ok {
		respondJSON(w, http.StatusBadRequest,
			map[string]string{"error": "multiLineChildrenEnabled is required"})
		return
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		respondJSON(w, http.StatusBadRequest,
			map[string]string{"error": "multiLineChildrenEnabled must be a boolean"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("failed to load settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to load settings"})
		return
	}
	settings.MultiLineChildrenEnabled = enabled
	if err := h.Settings.Save(ctx, settings); err != nil {
		h.Log.Error("failed to save settings", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to save settings"})
		return
	}
	respondJSON(w, http.StatusOK,
		map[string]any{"success": true, "multiLineChildrenEnabled": enabled})
}

// userSummary is the trimmed shape test-hierarchy reports for each user.
type userSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Title string `json:"title"`
}

// TestHierarchy handles GET /api/test-hierarchy/{email} (admin only). It
// fetches a fresh snapshot, verifies the email exists, and reports which
// root a tree built around that email would get, without touching the cache
// or anyone's session.
func (h *Handler) TestHierarchy(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || strings.TrimSpace(email) == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email"})
		return
	}
	email = strings.TrimSpace(email)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Refresh())
	defer cancel()

	settings := h.loadSettings(ctx)
	parts, err := h.Directory.FetchAllEmployees(ctx, refresh.OptionsFromSettings(settings))
	if err != nil {
		h.Log.Error("test-hierarchy fetch failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to fetch employee data"})
		return
	}

	var target *models.Employee
	for _, emp := range parts.Visible {
		if strings.EqualFold(emp.Email, email) || strings.EqualFold(emp.UserPrincipalName, email) {
			target = emp
			break
		}
	}
	if target == nil {
		respondJSON(w, http.StatusNotFound,
			map[string]string{"error": "Email " + email + " not found in employee data"})
		return
	}

	root := hierarchy.Build(parts.Visible, hierarchy.OverrideEmail(target.Email),
		settings.TopLevelUserEmail, settings.TopLevelUserID)
	if root == nil {
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Could not build hierarchy"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"test_email":      email,
		"root_user":       userSummary{Name: root.Name, Email: root.Email, Title: root.Title},
		"target_user":     userSummary{Name: target.Name, Email: target.Email, Title: target.Title},
		"total_employees": len(parts.Visible),
	})
}

// AuthCheck handles GET /api/auth-check so the client can toggle admin UI.
func (h *Handler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		respondJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
		return
	}
	respondJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
}

// cachedTree loads the cached hierarchy, or nil when none is available.
func (h *Handler) cachedTree(ctx context.Context) *models.Employee {
	var root models.Employee
	found, err := h.Reports.GetJSON(ctx, reportcache.KeyHierarchy, &root)
	if err != nil {
		h.Log.Error("failed to load cached hierarchy", zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	return &root
}

// loadSettings falls back to defaults so a settings read failure degrades
// the chart instead of blanking it.
func (h *Handler) loadSettings(ctx context.Context) models.OrgSettings {
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("failed to load settings, using defaults", zap.Error(err))
		return models.DefaultOrgSettings()
	}
	return settings
}

// noDataPlaceholder is served when no snapshot has ever been cached, so the
// client renders a hint instead of an empty page.
func noDataPlaceholder() *models.Employee {
	return &models.Employee{
		ID:       "root",
		Name:     "No Data",
		Title:    "Please check configuration",
		Children: []*models.Employee{},
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
