package hierarchy_test

import (
	"reflect"
	"testing"

	"github.com/dalemusser/orgchart/internal/app/system/hierarchy"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

func TestCollectEmptyInput(t *testing.T) {
	got := hierarchy.Collect(nil, nil, hierarchy.NoOverride(), "")
	if len(got) != 0 {
		t.Errorf("Collect(nil) = %v, want empty", got)
	}
}

func TestCollectClassification(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
		emp("noMgr", "Nia", "Clerk", "nia@co.com", ""),
		emp("badMgr", "Ben", "Clerk", "ben@co.com", "ghost"),
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if root == nil || root.ID != "a" {
		t.Fatalf("root = %v, want a", root)
	}

	records := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	got := map[string]models.MissingReason{}
	for _, rec := range records {
		got[rec.ID] = rec.MissingReason
	}
	want := map[string]models.MissingReason{
		"noMgr":  models.MissingNoManager,
		"badMgr": models.MissingManagerNotFound,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("classification = %v, want %v", got, want)
	}
}

func TestCollectManagerNameResolved(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
		// c reports to b but the tree was built without c attached.
		emp("c", "Cat", "Engineer", "cat@co.com", "c"),
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")

	records := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].ID != "c" || records[0].ManagerName != "Cat" {
		t.Errorf("record = %+v, want c with managerName Cat (self-loop resolves to itself)", records[0])
	}
}

func TestCollectFilteredOverridesReason(t *testing.T) {
	filtered := emp("f", "Fay", "Clerk", "fay@co.com", "")
	filtered.FilterReasons = []models.FilterReason{models.FilterDisabled}

	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		filtered,
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")

	records := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Reason != models.ReasonFiltered {
		t.Errorf("reason = %q, want %q", rec.Reason, models.ReasonFiltered)
	}
	if rec.MissingReason != models.MissingNoManager {
		t.Errorf("missingReason = %q, want %q", rec.MissingReason, models.MissingNoManager)
	}
	if !reflect.DeepEqual(rec.FilterReasons, []models.FilterReason{models.FilterDisabled}) {
		t.Errorf("filterReasons = %v", rec.FilterReasons)
	}
}

func TestCollectTopUserEmailExemption(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "Bob@Co.com", ""),
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")

	// Configured email matches case-insensitively.
	records := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "bob@co.com")
	if len(records) != 0 {
		t.Errorf("records = %v, want empty (b exempt by email)", records)
	}

	// An explicitly empty override disables the exemption.
	records = hierarchy.Collect(employees, root, hierarchy.OverrideEmail(""), "bob@co.com")
	if len(records) != 1 || records[0].ID != "b" {
		t.Errorf("records = %v, want [b]", records)
	}
}

func TestCollectOverrideEmailExemption(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", ""),
		emp("c", "Cat", "CTO", "cat@co.com", ""),
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")

	records := hierarchy.Collect(employees, root, hierarchy.OverrideEmail("cat@co.com"), "bob@co.com")
	got := make([]string, 0, len(records))
	for _, rec := range records {
		got = append(got, rec.ID)
	}
	// The override replaces the configured exemption: cat is exempt, bob is not.
	if want := []string{"b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("records = %v, want %v", got, want)
	}
}

func TestCollectSortAndStability(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("z1", "Zoe", "Clerk", "z1@co.com", ""),
		emp("z2", "Zoe", "Clerk", "z2@co.com", ""),
		emp("m", "Moe", "Clerk", "m@co.com", ""),
	}
	employees[1].Department = "Sales"
	employees[2].Department = "Sales"
	employees[3].Department = "Accounting"

	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	records := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")

	got := make([]string, 0, len(records))
	for _, rec := range records {
		got = append(got, rec.ID)
	}
	// Sorted by (department, name); the two identical (Sales, Zoe) rows keep
	// their input order.
	if want := []string{"m", "z1", "z2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestCollectLocationFallback(t *testing.T) {
	e := emp("b", "Bob", "VP", "bob@co.com", "")
	e.OfficeLocation = "HQ 4th Floor"
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		e,
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")

	records := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	if len(records) != 1 || records[0].Location != "HQ 4th Floor" {
		t.Errorf("records = %+v, want location fallback to officeLocation", records)
	}
}
