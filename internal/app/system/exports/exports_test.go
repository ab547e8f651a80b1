package exports_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dalemusser/orgchart/internal/app/system/exports"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

func directoryEmployee(name, business, mobile string) *models.Employee {
	return &models.Employee{
		Name:          name,
		Title:         "Engineer",
		Department:    "Ops",
		Email:         strings.ToLower(strings.Fields(name)[0]) + "@corp.test",
		BusinessPhone: business,
		Phone:         mobile,
	}
}

func TestBuildDirectoryItems(t *testing.T) {
	employees := []*models.Employee{
		directoryEmployee("Zoe Young", "+1 (555) 010-2000", ""),
		directoryEmployee("Al Adams", "", "555-0100"),
		directoryEmployee("No Phone", "", ""),
	}

	items := exports.BuildDirectoryItems(employees, models.DefaultOrgSettings())
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 (phoneless employee skipped): %+v", len(items), items)
	}
	// Sorted by name, case-insensitive.
	if items[0].Name != "Al Adams" || items[1].Name != "Zoe Young" {
		t.Errorf("order = %q, %q", items[0].Name, items[1].Name)
	}
	if items[0].Number != "5550100" {
		t.Errorf("mobile-only number = %q", items[0].Number)
	}
	if items[1].Number != "15550102000" || items[1].Phone != "+1 (555) 010-2000" {
		t.Errorf("business number = %q phone = %q", items[1].Number, items[1].Phone)
	}
	if items[0].FirstName != "Al" || items[0].LastName != "Adams" {
		t.Errorf("name split = %q/%q", items[0].FirstName, items[0].LastName)
	}
	if items[0].Comment != "Engineer - Ops" {
		t.Errorf("comment = %q", items[0].Comment)
	}
}

func TestBuildDirectoryItemsDuplicateNumbersGetGenerated(t *testing.T) {
	employees := []*models.Employee{
		directoryEmployee("Ann One", "555-0100", ""),
		directoryEmployee("Bob Two", "555-0100", ""),
	}

	items := exports.BuildDirectoryItems(employees, models.DefaultOrgSettings())
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	if items[0].Number != "5550100" {
		t.Errorf("first number = %q", items[0].Number)
	}
	if items[1].Number != "001" {
		t.Errorf("duplicate should fall back to generated extension, got %q", items[1].Number)
	}
}

func TestBuildDirectoryItemsCustomContacts(t *testing.T) {
	settings := models.DefaultOrgSettings()
	settings.CustomDirectoryContacts = strings.Join([]string{
		"# front desk numbers",
		"Reception, 100",
		"",
		"No Digits, extension",
		"Security Desk, 555-0199",
	}, "\n")

	items := exports.BuildDirectoryItems(nil, settings)
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	if items[0].Name != "Reception" || items[0].Number != "100" {
		t.Errorf("reception = %+v", items[0])
	}
	if items[1].Number != "5550199" || items[1].Phone != "555-0199" {
		t.Errorf("security = %+v", items[1])
	}
}

func TestWriteMicroSIPXML(t *testing.T) {
	items := []exports.DirectoryItem{{
		Number: "101", Name: "Ann O'Hara", FirstName: "Ann", LastName: "O'Hara",
		Email: "ann@corp.test",
	}}

	var buf bytes.Buffer
	if err := exports.WriteMicroSIPXML(&buf, items); err != nil {
		t.Fatalf("WriteMicroSIPXML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<?xml", "<items>", `number="101"`, `email="ann@corp.test"`, `presence="0"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHireDate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2026-03-01T00:00:00Z", "2026-03-01"},
		{"2026-03-01", "2026-03-01"},
		{"", ""},
		{"not-a-date", "not-a-date"},
	}
	for _, tt := range tests {
		if got := exports.FormatHireDate(tt.in); got != tt.want {
			t.Errorf("FormatHireDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReasonLabel(t *testing.T) {
	if got := exports.ReasonLabel("no_manager"); got != "No manager assigned" {
		t.Errorf("no_manager label = %q", got)
	}
	if got := exports.ReasonLabel("mystery"); got != "mystery" {
		t.Errorf("unknown reason should pass through, got %q", got)
	}
}

func TestOrgChartWorkbook(t *testing.T) {
	root := &models.Employee{
		ID: "r", Name: "Ada", Title: "CEO", Department: "Exec",
		Email: "ada@corp.test", AccountEnabled: true, HireDate: "2020-01-15T00:00:00Z",
		Children: []*models.Employee{
			{
				ID: "g", Name: "Guest", Title: "Contractor", Department: "Exec",
				UserType: "Guest", AccountEnabled: true,
				Children: []*models.Employee{
					{ID: "c", Name: "Cal", Title: "Engineer", Department: "Eng",
						Email: "cal@corp.test", AccountEnabled: true},
				},
			},
		},
	}

	settings := models.DefaultOrgSettings()
	settings.ExportXlsxColumns["phone"] = "hide"

	f, err := exports.OrgChartWorkbook(root, settings, false)
	if err != nil {
		t.Fatalf("OrgChartWorkbook: %v", err)
	}

	const sheet = "Organization Chart"
	if v, _ := f.GetCellValue(sheet, "A1"); v != "Name" {
		t.Errorf("A1 = %q", v)
	}
	// hireDate defaults to admin-only and phone is hidden, so the header row
	// for an anonymous export is Name..Business Phone, Country...
	row1, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	headers := row1[0]
	for _, h := range headers {
		if h == "Hire Date" {
			t.Error("admin-only Hire Date column exported for anonymous viewer")
		}
		if h == "Phone" {
			t.Error("hidden Phone column exported")
		}
	}

	// Guest row is skipped (hideGuestUsers default true) and their report is
	// re-parented onto the nearest exported ancestor.
	if len(row1) != 3 {
		t.Fatalf("rows = %d, want header + 2 employees: %v", len(row1), row1)
	}
	if row1[1][0] != "Ada" || row1[2][0] != "Cal" {
		t.Errorf("row names = %q, %q", row1[1][0], row1[2][0])
	}
	managerCol := -1
	for i, h := range headers {
		if h == "Manager" {
			managerCol = i
		}
	}
	if managerCol < 0 {
		t.Fatal("Manager column missing")
	}
	if got := row1[2][managerCol]; got != "Ada" {
		t.Errorf("Cal's manager = %q, want Ada", got)
	}
}

func TestOrgChartWorkbookAdminSeesAdminColumns(t *testing.T) {
	root := &models.Employee{
		ID: "r", Name: "Ada", Title: "CEO", Department: "Exec",
		AccountEnabled: true, HireDate: "2020-01-15T00:00:00Z",
	}

	f, err := exports.OrgChartWorkbook(root, models.DefaultOrgSettings(), true)
	if err != nil {
		t.Fatalf("OrgChartWorkbook: %v", err)
	}
	rows, err := f.GetRows("Organization Chart")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	found := false
	for _, h := range rows[0] {
		if h == "Hire Date" {
			found = true
		}
	}
	if !found {
		t.Error("admin export should include the Hire Date column")
	}
}
