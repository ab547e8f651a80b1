// internal/app/system/refresh/refresh.go
//
// Package refresh runs the full data update: pull the directory snapshot,
// rebuild the hierarchy and every derived report, and write the results to
// the report cache. One run at a time across all processes, enforced by the
// update status store.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/filters"
	"github.com/dalemusser/orgchart/internal/app/system/graph"
	"github.com/dalemusser/orgchart/internal/app/system/hierarchy"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// recentWindowDays bounds the recently-hired and recently-disabled reports.
const recentWindowDays = 365

// Source is the directory backend; production wires the Graph client.
type Source interface {
	FetchAllEmployees(ctx context.Context, opts graph.FetchOptions) (*graph.EmployeePartitions, error)
	CollectLastLoginRecords(ctx context.Context) ([]models.LastLoginRecord, error)
	CollectDisabledUsers(ctx context.Context, previous []models.DisabledUserRecord) ([]models.DisabledUserRecord, error)
}

// SettingsSource yields the saved settings the refresh honors.
type SettingsSource interface {
	Get(ctx context.Context) (models.OrgSettings, error)
}

// StatusStore is the advisory lock and run bookkeeping.
type StatusStore interface {
	TryStart(ctx context.Context, source string) (runID string, ok bool, err error)
	Finish(ctx context.Context, runID string, employeeCount int, runErr error) error
}

// Runner orchestrates one full refresh.
type Runner struct {
	source   Source
	settings SettingsSource
	cache    reportcache.Store
	status   StatusStore
	log      *zap.Logger
	now      func() time.Time
}

// New wires a refresh runner.
func New(source Source, settings SettingsSource, cache reportcache.Store, status StatusStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:   source,
		settings: settings,
		cache:    cache,
		status:   status,
		log:      logger,
		now:      time.Now,
	}
}

// Run executes one refresh attributed to source ("manual", "scheduled",
// "startup", "cache-miss"). When another refresh already holds the lock the
// call is skipped without error.
func (r *Runner) Run(ctx context.Context, source string) error {
	runID, ok, err := r.status.TryStart(ctx, source)
	if err != nil {
		return fmt.Errorf("claim update lock: %w", err)
	}
	if !ok {
		r.log.Info("data update already running, skipping", zap.String("source", source))
		return nil
	}

	count, runErr := r.run(ctx)
	if finishErr := r.status.Finish(ctx, runID, count, runErr); finishErr != nil {
		r.log.Error("failed to record update status", zap.Error(finishErr))
	}
	if runErr != nil {
		return fmt.Errorf("refresh (%s): %w", source, runErr)
	}
	r.log.Info("employee data update finished",
		zap.String("source", source), zap.Int("employees", count))
	return nil
}

func (r *Runner) run(ctx context.Context) (int, error) {
	settings, err := r.settings.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}

	parts, err := r.source.FetchAllEmployees(ctx, OptionsFromSettings(settings))
	if err != nil {
		return 0, fmt.Errorf("fetch employees: %w", err)
	}

	employees := parts.Visible
	employees = trimIgnored(employees, settings, r.log)

	if len(employees) > 0 {
		if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyEmployees, employees); err != nil {
			r.log.Error("failed to cache employee snapshot", zap.Error(err))
		}

		root := hierarchy.Build(employees, hierarchy.NoOverride(),
			settings.TopLevelUserEmail, settings.TopLevelUserID)

		combined := combineForMissing(employees, parts.Filtered)
		missing := hierarchy.Collect(combined, root, hierarchy.NoOverride(), settings.TopLevelUserEmail)

		if root != nil {
			RecomputeNewFlags(root, settings.NewEmployeeMonths, r.now())
			if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyHierarchy, root); err != nil {
				r.log.Error("failed to cache hierarchy", zap.Error(err))
			}
			if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyMissingManager, missing); err != nil {
				r.log.Error("failed to cache missing manager report", zap.Error(err))
			}
			r.log.Info("rebuilt hierarchy",
				zap.Int("employees", len(employees)),
				zap.Int("missing_manager", len(missing)))
		} else {
			r.log.Error("could not build hierarchy from employee data")
		}

		hired := RecentlyHired(employees, recentWindowDays, r.now())
		if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyRecentlyHired, hired); err != nil {
			r.log.Error("failed to cache recently hired report", zap.Error(err))
		}
	} else {
		r.log.Error("no employees fetched from directory")
	}

	if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyFilteredUsers, parts.Filtered); err != nil {
		r.log.Error("failed to cache filtered users report", zap.Error(err))
	}
	if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyFilteredLicensed, parts.FilteredWithLicense); err != nil {
		r.log.Error("failed to cache filtered licensed report", zap.Error(err))
	}

	if logins, err := r.source.CollectLastLoginRecords(ctx); err != nil {
		r.log.Error("failed to collect sign-in activity", zap.Error(err))
	} else if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyLastLogins, logins); err != nil {
		r.log.Error("failed to cache last sign-in report", zap.Error(err))
	}

	var previousDisabled []models.DisabledUserRecord
	if _, err := getCachedJSON(ctx, r.cache, reportcache.KeyDisabledUsers, &previousDisabled); err != nil {
		r.log.Warn("unable to load previous disabled users cache", zap.Error(err))
	}

	if disabled, err := r.source.CollectDisabledUsers(ctx, previousDisabled); err != nil {
		r.log.Error("failed to collect disabled users", zap.Error(err))
	} else {
		if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyDisabledUsers, disabled); err != nil {
			r.log.Error("failed to cache disabled users report", zap.Error(err))
		}
		licensed := graph.FilterLicensedDisabled(disabled)
		if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyDisabledLicensed, licensed); err != nil {
			r.log.Error("failed to cache disabled licensed report", zap.Error(err))
		}
		recent := RecentlyDisabled(disabled, recentWindowDays, r.now())
		if err := reportcache.PutJSON(ctx, r.cache, reportcache.KeyRecentlyDisabled, recent); err != nil {
			r.log.Error("failed to cache recently disabled report", zap.Error(err))
		}
	}

	return len(employees), nil
}

// OptionsFromSettings maps the saved settings to directory fetch options.
func OptionsFromSettings(settings models.OrgSettings) graph.FetchOptions {
	return graph.FetchOptions{
		HideDisabledUsers:  settings.HideDisabledUsers,
		HideGuestUsers:     settings.HideGuestUsers,
		HideNoTitle:        settings.HideNoTitle,
		IgnoredTitles:      filters.ParseValues(settings.IgnoredTitles),
		IgnoredDepartments: filters.ParseValues(settings.IgnoredDepartments),
		IgnoredEmployees:   filters.ParseValues(settings.IgnoredEmployees),
		NewEmployeeMonths:  settings.NewEmployeeMonths,
	}
}

// trimIgnored drops ignored employees and departments from the visible
// list. The fetch already partitions these out, but cached fallbacks may
// predate a settings change, so the trim is applied again here.
func trimIgnored(employees []*models.Employee, settings models.OrgSettings, log *zap.Logger) []*models.Employee {
	ignoredEmployees := filters.ParseValues(settings.IgnoredEmployees)
	ignoredDepartments := filters.ParseValues(settings.IgnoredDepartments)
	if len(ignoredEmployees) == 0 && len(ignoredDepartments) == 0 {
		return employees
	}

	kept := make([]*models.Employee, 0, len(employees))
	for _, emp := range employees {
		if filters.EmployeeIgnored(emp.Name, emp.Email, emp.UserPrincipalName, ignoredEmployees) {
			continue
		}
		if filters.DepartmentIgnored(emp.Department, ignoredDepartments) {
			continue
		}
		kept = append(kept, emp)
	}
	if len(kept) != len(employees) {
		log.Info("trimmed ignored employees",
			zap.Int("before", len(employees)), zap.Int("after", len(kept)))
	}
	return kept
}

// combineForMissing merges the visible and filtered lists by id so the
// missing-manager report covers both; a filtered record replaces a visible
// one with the same id in place.
func combineForMissing(employees, filtered []*models.Employee) []*models.Employee {
	if len(filtered) == 0 {
		return employees
	}
	combined := make([]*models.Employee, 0, len(employees)+len(filtered))
	position := make(map[string]int, len(employees))
	for _, emp := range employees {
		if emp.ID != "" {
			if at, ok := position[emp.ID]; ok {
				combined[at] = emp
				continue
			}
			position[emp.ID] = len(combined)
		}
		combined = append(combined, emp)
	}
	for _, emp := range filtered {
		if emp.ID != "" {
			if at, ok := position[emp.ID]; ok {
				combined[at] = emp
				continue
			}
			position[emp.ID] = len(combined)
		}
		combined = append(combined, emp)
	}
	return combined
}

// RecomputeNewFlags walks a built tree and re-derives isNewEmployee from
// the hire date and the configured window.
func RecomputeNewFlags(root *models.Employee, months int, now time.Time) {
	cutoff := now.AddDate(0, 0, -months*30)
	stack := []*models.Employee{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		node.IsNewEmployee = false
		if hired := graph.ParseGraphTime(node.HireDate); hired != nil {
			node.IsNewEmployee = hired.After(cutoff)
		}
		stack = append(stack, node.Children...)
	}
}

// getCachedJSON decodes a cached blob without triggering a refresh.
func getCachedJSON(ctx context.Context, store reportcache.Store, key string, out any) (bool, error) {
	data, found, err := store.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return true, nil
}
