// internal/app/system/refresh/reports.go
package refresh

import (
	"sort"
	"time"

	"github.com/dalemusser/orgchart/internal/app/system/graph"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// RecentlyHired filters the employee list to hires within the last days,
// resolves each manager's name, and sorts ascending by hire date.
func RecentlyHired(employees []*models.Employee, days int, now time.Time) []models.RecentHireRecord {
	cutoff := now.UTC().AddDate(0, 0, -days)
	byID := make(map[string]*models.Employee, len(employees))
	for _, emp := range employees {
		if emp.ID != "" {
			byID[emp.ID] = emp
		}
	}

	recent := make([]models.RecentHireRecord, 0)
	for _, emp := range employees {
		hired := graph.ParseGraphTime(emp.HireDate)
		if hired == nil {
			hired = graph.ParseGraphTime(emp.EmployeeHireDate)
		}
		if hired == nil || hired.Before(cutoff) {
			continue
		}

		record := models.RecentHireRecord{
			ID:                emp.ID,
			Name:              emp.Name,
			Title:             emp.Title,
			Department:        emp.Department,
			Email:             emp.Email,
			UserPrincipalName: emp.UserPrincipalName,
			Phone:             emp.Phone,
			BusinessPhone:     emp.BusinessPhone,
			Location:          emp.Location,
			HireDate:          graph.FormatISO(hired),
			DaysSinceHire:     graph.DaysSince(hired, now),
		}
		if record.Location == "" {
			record.Location = emp.OfficeLocation
		}
		if emp.ManagerID != nil {
			if manager, ok := byID[*emp.ManagerID]; ok {
				record.ManagerName = manager.Name
			}
		}
		recent = append(recent, record)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].HireDate < recent[j].HireDate
	})
	return recent
}

// RecentlyDisabled filters disabled user records to accounts first observed
// disabled within the last days. The disabled date and day count are
// re-derived from the observed timestamp so the report stays consistent even
// when the source rows carry stale values.
func RecentlyDisabled(records []models.DisabledUserRecord, days int, now time.Time) []models.DisabledUserRecord {
	cutoff := now.UTC().AddDate(0, 0, -days)

	recent := make([]models.DisabledUserRecord, 0)
	for _, record := range records {
		observed := record.FirstSeenDisabledAt
		if observed == "" {
			observed = record.DisabledDate
		}
		disabledAt := graph.ParseGraphTime(observed)
		if disabledAt == nil || disabledAt.Before(cutoff) {
			continue
		}

		updated := record
		updated.DisabledDate = graph.FormatISO(disabledAt)
		updated.DisabledDays = graph.DaysSince(disabledAt, now)
		if updated.FirstSeenDisabledAt == "" {
			updated.FirstSeenDisabledAt = updated.DisabledDate
		}
		recent = append(recent, updated)
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].DisabledDate < recent[j].DisabledDate
	})
	return recent
}
