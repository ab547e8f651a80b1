// internal/app/system/hierarchy/collect.go
package hierarchy

import (
	"sort"
	"strings"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

// Collect flags every employee that is not placed under root and explains
// why. Classification order: no managerId at all, managerId pointing at a
// row that does not exist, or a resolvable managerId on a node that the
// traversal never reached (detached, typically a cycle). When the employee
// carries filter tags the public reason becomes "filtered" and the
// structural classification moves to MissingReason.
//
// The hierarchy root and the effective top user (by email,
// case-insensitive) are exempt. A present-but-empty override disables the
// email exemption entirely; otherwise the override email, then the
// configured email, applies.
//
// Records are sorted by (department, name) on the raw strings; ties keep
// input order.
func Collect(employees []*models.Employee, root *models.Employee, override RootOverride, cfgEmail string) []models.MissingManagerRecord {
	if len(employees) == 0 {
		return []models.MissingManagerRecord{}
	}

	index := make(map[string]*models.Employee, len(employees))
	for _, emp := range employees {
		if emp.ID != "" {
			index[emp.ID] = emp
		}
	}

	visited := make(map[string]bool)
	if root != nil {
		// Explicit stack; the visited check also guards against malformed
		// trees with shared or cyclic children.
		stack := []*models.Employee{root}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if node == nil || node.ID == "" || visited[node.ID] {
				continue
			}
			visited[node.ID] = true
			stack = append(stack, node.Children...)
		}
	}

	topEmail := strings.ToLower(strings.TrimSpace(cfgEmail))
	if override.Present() {
		topEmail = strings.ToLower(override.Email())
	}

	records := []models.MissingManagerRecord{}
	for _, emp := range employees {
		if emp.ID != "" && root != nil && emp.ID == root.ID {
			continue
		}
		if topEmail != "" {
			if email := strings.ToLower(strings.TrimSpace(emp.Email)); email != "" && email == topEmail {
				continue
			}
		}

		managerName := ""
		if emp.HasManager() {
			if manager, ok := index[*emp.ManagerID]; ok {
				managerName = manager.Name
			}
		}

		var reason models.MissingReason
		switch {
		case !emp.HasManager():
			reason = models.MissingNoManager
		case index[*emp.ManagerID] == nil:
			reason = models.MissingManagerNotFound
		case !visited[emp.ID]:
			reason = models.MissingDetached
		default:
			continue
		}

		filterReasons := make([]models.FilterReason, 0, len(emp.FilterReasons))
		filterReasons = append(filterReasons, emp.FilterReasons...)
		publicReason := string(reason)
		if len(filterReasons) > 0 {
			publicReason = models.ReasonFiltered
		}

		location := emp.Location
		if location == "" {
			location = emp.OfficeLocation
		}

		skus := make([]string, 0, len(emp.LicenseSkus))
		skus = append(skus, emp.LicenseSkus...)
		skuIDs := make([]string, 0, len(emp.LicenseSkuIDs))
		skuIDs = append(skuIDs, emp.LicenseSkuIDs...)

		records = append(records, models.MissingManagerRecord{
			ID:              emp.ID,
			Name:            emp.Name,
			Title:           emp.Title,
			Department:      emp.Department,
			Email:           emp.Email,
			Phone:           emp.Phone,
			BusinessPhone:   emp.BusinessPhone,
			Location:        location,
			ManagerName:     managerName,
			Reason:          publicReason,
			MissingReason:   reason,
			FilterReasons:   filterReasons,
			AccountEnabled:  emp.AccountEnabled,
			UserType:        strings.ToLower(emp.UserType),
			LicenseCount:    emp.LicenseCount,
			LicenseSkus:     skus,
			LicenseSkuIDs:   skuIDs,
			MailboxType:     emp.MailboxType,
			IsSharedMailbox: emp.IsSharedMailbox,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Department != records[j].Department {
			return records[i].Department < records[j].Department
		}
		return records[i].Name < records[j].Name
	})
	return records
}
