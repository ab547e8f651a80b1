package filters_test

import (
	"reflect"
	"testing"

	"github.com/dalemusser/orgchart/internal/app/system/filters"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  Sales  ", "sales"},
		{"- Sales -", "sales"},
		{"| IT  Support |", "it support"},
		{"Human\t\tResources", "human resources"},
		{"—Consultants—", "consultants"},
	}
	for _, tc := range cases {
		if got := filters.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseValuesLegacy(t *testing.T) {
	got := filters.ParseValues("Sales; Marketing , IT Support;;")
	want := map[string]bool{"sales": true, "marketing": true, "it support": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseValues = %v, want %v", got, want)
	}
}

func TestParseValuesJSONArray(t *testing.T) {
	got := filters.ParseValues(`["Sales", " Marketing ", ""]`)
	want := map[string]bool{"sales": true, "marketing": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseValues = %v, want %v", got, want)
	}
}

func TestParseValuesMalformedJSON(t *testing.T) {
	if got := filters.ParseValues(`["Sales"`); len(got) != 0 {
		t.Errorf("ParseValues(malformed) = %v, want empty", got)
	}
	if got := filters.ParseValues("   "); len(got) != 0 {
		t.Errorf("ParseValues(blank) = %v, want empty", got)
	}
}

func TestDepartmentIgnored(t *testing.T) {
	ignored := filters.ParseValues("Sales;Consultants")
	if !filters.DepartmentIgnored("  SALES ", ignored) {
		t.Error("SALES should match ignored sales")
	}
	if filters.DepartmentIgnored("Engineering", ignored) {
		t.Error("Engineering should not match")
	}
	if filters.DepartmentIgnored("Sales", nil) {
		t.Error("empty set should never match")
	}
}

func TestEmployeeIgnoredCombos(t *testing.T) {
	ignored := filters.ParseValues(`["Jane Doe <jane@co.com>", "bob@co.com"]`)

	if !filters.EmployeeIgnored("Jane Doe", "jane@co.com", "", ignored) {
		t.Error("name <email> combo should match")
	}
	if !filters.EmployeeIgnored("Bob Ray", "bob@co.com", "", ignored) {
		t.Error("bare email should match")
	}
	if !filters.EmployeeIgnored("Bob Ray", "", "bob@co.com", ignored) {
		t.Error("userPrincipalName should match like email")
	}
	if filters.EmployeeIgnored("Jane Doe", "other@co.com", "", ignored) {
		t.Error("different contact should not match")
	}
}

func TestEmployeeOptionLabels(t *testing.T) {
	employees := []*models.Employee{
		{Name: "Jane Doe", Email: "jane@co.com"},
		{Name: "jane doe", Email: "JANE@co.com"}, // duplicate contact
		{Name: "Bob Ray"},
		{Email: "ops@co.com"},
		{},
	}
	got := filters.EmployeeOptionLabels(employees)
	want := []string{"Bob Ray", "Jane Doe <jane@co.com>", "ops@co.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EmployeeOptionLabels = %v, want %v", got, want)
	}
}
