// internal/app/system/exports/xlsx.go
package exports

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dalemusser/orgchart/internal/app/system/filters"
	"github.com/dalemusser/orgchart/internal/app/system/graph"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

const headerFillColor = "366092"

// ReasonLabels maps missing-manager report reasons to the spreadsheet text.
var ReasonLabels = map[string]string{
	"no_manager":        "No manager assigned",
	"manager_not_found": "Manager not found in data",
	"detached":          "Detached from hierarchy",
	"filtered":          "Filtered",
}

// ReasonLabel returns the display label for a reason, or the raw value when
// no label is defined.
func ReasonLabel(reason string) string {
	if label, ok := ReasonLabels[reason]; ok {
		return label
	}
	return reason
}

// FormatHireDate renders a Graph timestamp as YYYY-MM-DD for spreadsheets.
// Unparseable input is passed through unchanged.
func FormatHireDate(value string) string {
	if value == "" {
		return ""
	}
	if parsed := graph.ParseGraphTime(value); parsed != nil {
		return parsed.Format("2006-01-02")
	}
	return value
}

// Workbook builds a single-sheet workbook with a styled header row, one row
// per entry, and uniform column widths.
func Workbook(sheetTitle string, headers []string, rows [][]any, colWidth float64) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetTitle); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetTitle, cell, header); err != nil {
			return nil, err
		}
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetTitle, "A1", last, styleID); err != nil {
			return nil, err
		}
		lastCol, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetTitle, "A", lastCol, colWidth); err != nil {
			return nil, err
		}
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetTitle, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// orgColumn is one exportable org chart column.
type orgColumn struct {
	key     string
	header  string
	extract func(node *models.Employee, managerName string) string
}

var orgColumns = []orgColumn{
	{"name", "Name", func(n *models.Employee, _ string) string { return n.Name }},
	{"title", "Title", func(n *models.Employee, _ string) string { return n.Title }},
	{"department", "Department", func(n *models.Employee, _ string) string { return n.Department }},
	{"email", "Email", func(n *models.Employee, _ string) string { return n.Email }},
	{"phone", "Phone", func(n *models.Employee, _ string) string { return n.Phone }},
	{"businessPhone", "Business Phone", func(n *models.Employee, _ string) string { return n.BusinessPhone }},
	{"hireDate", "Hire Date", func(n *models.Employee, _ string) string { return FormatHireDate(n.HireDate) }},
	{"country", "Country", func(n *models.Employee, _ string) string { return n.Country }},
	{"state", "State", func(n *models.Employee, _ string) string { return n.State }},
	{"city", "City", func(n *models.Employee, _ string) string { return n.City }},
	{"office", "Office", func(n *models.Employee, _ string) string { return n.OfficeLocation }},
	{"manager", "Manager", func(_ *models.Employee, manager string) string { return manager }},
}

// columnVisible applies the per-column export mode: "show", "hide", or the
// admin-only spellings ("admin", "show_admin_only", "admin-only").
func columnVisible(modes map[string]string, key string, isAdmin bool) bool {
	mode := strings.ToLower(strings.TrimSpace(modes[key]))
	if mode == "" {
		mode = "show"
	}
	if mode == "hide" {
		return false
	}
	normalized := strings.NewReplacer("_", "", "-", "").Replace(mode)
	if mode == "admin" || normalized == "showadminonly" || normalized == "adminonly" {
		return isAdmin
	}
	return true
}

// OrgChartWorkbook flattens the hierarchy into an "Organization Chart" sheet.
// Column visibility follows the saved export settings (admin-only columns are
// dropped for anonymous viewers) and the chart's hide/ignore filters apply to
// rows; a filtered-out manager's reports keep the nearest visible ancestor in
// the Manager column.
func OrgChartWorkbook(root *models.Employee, settings models.OrgSettings, isAdmin bool) (*excelize.File, error) {
	visible := make([]orgColumn, 0, len(orgColumns))
	for _, col := range orgColumns {
		if columnVisible(settings.ExportXlsxColumns, col.key, isAdmin) {
			visible = append(visible, col)
		}
	}
	if len(visible) == 0 {
		// Never produce an empty sheet; keep at least the name column.
		visible = orgColumns[:1]
	}

	ignoredDepartments := filters.ParseValues(settings.IgnoredDepartments)

	headers := make([]string, len(visible))
	for i, col := range visible {
		headers[i] = col.header
	}

	var rows [][]any
	var walk func(node *models.Employee, managerName string)
	walk = func(node *models.Employee, managerName string) {
		if node == nil {
			return
		}
		skip := skipInExport(node, settings, ignoredDepartments)
		if !skip {
			row := make([]any, len(visible))
			for i, col := range visible {
				row[i] = col.extract(node, managerName)
			}
			rows = append(rows, row)
		}

		childManager := managerName
		if !skip {
			childManager = node.Name
		}
		for _, child := range node.Children {
			walk(child, childManager)
		}
	}
	walk(root, "")

	return Workbook("Organization Chart", headers, rows, 20)
}

func skipInExport(node *models.Employee, settings models.OrgSettings, ignoredDepartments map[string]bool) bool {
	title := strings.TrimSpace(node.Title)
	if settings.HideNoTitle && (title == "" || title == "No Title") {
		return true
	}
	if filters.DepartmentIgnored(node.Department, ignoredDepartments) {
		return true
	}
	if settings.HideDisabledUsers && !node.AccountEnabled {
		return true
	}
	if settings.HideGuestUsers && strings.EqualFold(node.UserType, "guest") {
		return true
	}
	return false
}
