package hierarchy_test

import (
	"reflect"
	"testing"

	"github.com/dalemusser/orgchart/internal/app/system/hierarchy"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

func emp(id, name, title, email, managerID string) *models.Employee {
	e := &models.Employee{ID: id, Name: name, Title: title, Email: email}
	if managerID != "" {
		e.ManagerID = &managerID
	}
	return e
}

func childIDs(node *models.Employee) []string {
	ids := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		ids = append(ids, child.ID)
	}
	return ids
}

func TestBuildEmptyInput(t *testing.T) {
	if got := hierarchy.Build(nil, hierarchy.NoOverride(), "", ""); got != nil {
		t.Errorf("Build(nil) = %v, want nil", got)
	}
	if got := hierarchy.Build([]*models.Employee{}, hierarchy.NoOverride(), "", ""); got != nil {
		t.Errorf("Build(empty) = %v, want nil", got)
	}
}

func TestBuildSingleEmployee(t *testing.T) {
	root := hierarchy.Build([]*models.Employee{emp("a", "Ann", "CEO", "ann@co.com", "")}, hierarchy.NoOverride(), "", "")
	if root == nil {
		t.Fatal("Build returned nil")
	}
	if root.ID != "a" {
		t.Errorf("root.ID = %q, want %q", root.ID, "a")
	}
	if len(root.Children) != 0 {
		t.Errorf("root.Children = %v, want empty", childIDs(root))
	}
	if root.ManagerID != nil {
		t.Errorf("root.ManagerID = %q, want nil", *root.ManagerID)
	}
}

func TestBuildLinearChain(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
		emp("c", "Cat", "Engineer", "cat@co.com", "b"),
	}

	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if root == nil || root.ID != "a" {
		t.Fatalf("root = %v, want a", root)
	}
	if got := childIDs(root); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("a.children = %v, want [b]", got)
	}
	if got := childIDs(root.Children[0]); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("b.children = %v, want [c]", got)
	}

	missing := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	if len(missing) != 0 {
		t.Errorf("missing = %d records, want 0", len(missing))
	}
}

func TestBuildCycleFallsToMostReports(t *testing.T) {
	// Two disjoint two-person cycles, no one without a manager.
	employees := []*models.Employee{
		emp("a", "Ann", "", "ann@co.com", "b"),
		emp("b", "Bob", "", "bob@co.com", "a"),
		emp("x", "Xan", "", "xan@co.com", "y"),
		emp("y", "Yue", "", "yue@co.com", "x"),
	}

	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if root == nil {
		t.Fatal("Build returned nil")
	}
	// Every node has exactly one direct report; first max in input order wins.
	if root.ID != "a" {
		t.Errorf("root.ID = %q, want %q", root.ID, "a")
	}
	if root.ManagerID != nil {
		t.Errorf("root.ManagerID = %q, want nil", *root.ManagerID)
	}

	missing := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	got := map[string]models.MissingReason{}
	for _, rec := range missing {
		got[rec.ID] = rec.MissingReason
	}
	want := map[string]models.MissingReason{
		"x": models.MissingDetached,
		"y": models.MissingDetached,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("missing = %v, want %v", got, want)
	}
}

func TestBuildSelfLoopAppendsOnce(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("x", "Xan", "", "xan@co.com", "x"),
	}

	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if root == nil || root.ID != "a" {
		t.Fatalf("root = %v, want a", root)
	}

	// The self-edge resolves to the node itself; the duplicate guard keeps a
	// single copy.
	var selfNode *models.Employee
	for _, emp := range hierarchy.Flatten(root) {
		if emp.ID == "x" {
			selfNode = emp
		}
	}
	if selfNode != nil {
		t.Error("self-loop node should not be reachable from the root")
	}

	missing := hierarchy.Collect(employees, root, hierarchy.NoOverride(), "")
	if len(missing) != 1 || missing[0].ID != "x" {
		t.Fatalf("missing = %v, want [x]", missing)
	}
	if missing[0].MissingReason != models.MissingDetached {
		t.Errorf("missingReason = %q, want %q", missing[0].MissingReason, models.MissingDetached)
	}
}

func TestBuildOverrideBeatsConfigured(t *testing.T) {
	employees := []*models.Employee{
		emp("ceo", "Carol", "CEO", "ceo@co.com", ""),
		emp("cfo", "Fred", "CFO", "cfo@co.com", "ceo"),
	}

	root := hierarchy.Build(employees, hierarchy.OverrideEmail("cfo@co.com"), "ceo@co.com", "")
	if root == nil || root.ID != "cfo" {
		t.Fatalf("root = %v, want cfo", root)
	}
	if root.ManagerID != nil {
		t.Errorf("root.ManagerID = %q, want nil", *root.ManagerID)
	}
	// The chosen root must not linger as anyone's subordinate.
	count := 0
	for _, node := range hierarchy.Flatten(root) {
		if node.ID == "cfo" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("cfo appears %d times in the tree, want 1", count)
	}
}

func TestBuildUnknownOverrideFallsToHeuristic(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "Founder", "ann@co.com", ""),
		emp("b", "Bob", "VP", "ceo@co.com", "a"),
	}

	root := hierarchy.Build(employees, hierarchy.OverrideEmail("ghost@co.com"), "ceo@co.com", "")
	if root == nil || root.ID != "a" {
		t.Fatalf("root = %v, want a (heuristic), configured default must not apply", root)
	}
}

func TestBuildEmptyOverrideForcesAutoDetect(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "Head of Ops", "ann@co.com", ""),
		emp("b", "Bob", "VP", "ceo@co.com", "a"),
	}

	root := hierarchy.Build(employees, hierarchy.OverrideEmail(""), "ceo@co.com", "b")
	if root == nil || root.ID != "a" {
		t.Fatalf("root = %v, want a (auto-detect)", root)
	}
}

func TestBuildConfiguredIDFallback(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "Founder", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
	}

	// Configured email matches nothing; the configured id still applies when
	// no override is present.
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "ghost@co.com", "b")
	if root == nil || root.ID != "b" {
		t.Fatalf("root = %v, want b (configured id)", root)
	}
	if root.ManagerID != nil {
		t.Errorf("root.ManagerID = %q, want nil", *root.ManagerID)
	}
}

func TestBuildTitleKeywordSelection(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "Office Coordinator", "ann@co.com", ""),
		emp("b", "Bob", "Managing Director", "bob@co.com", ""),
		emp("c", "Cat", "Engineer", "cat@co.com", "b"),
	}

	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if root == nil || root.ID != "b" {
		t.Fatalf("root = %v, want b (title keyword)", root)
	}
}

func TestBuildDuplicateEdgesAppendOnce(t *testing.T) {
	// The same row showing up twice (overlapping fetch partitions) must not
	// duplicate the child edge.
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
	}

	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if root == nil || root.ID != "a" {
		t.Fatalf("root = %v, want a", root)
	}
	if got := childIDs(root); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("a.children = %v, want [b]", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
		emp("c", "Cat", "Engineer", "cat@co.com", "b"),
		emp("d", "Dan", "Engineer", "dan@co.com", "missing"),
	}

	first := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	second := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")
	if !reflect.DeepEqual(first, second) {
		t.Error("Build is not deterministic for identical input")
	}

	// Inputs stay untouched.
	for _, emp := range employees {
		if len(emp.Children) != 0 {
			t.Errorf("input employee %s mutated: children %v", emp.ID, childIDs(emp))
		}
	}
	if employees[1].ManagerID == nil || *employees[1].ManagerID != "a" {
		t.Error("input managerId mutated")
	}
}

func TestFlattenPreOrder(t *testing.T) {
	employees := []*models.Employee{
		emp("a", "Ann", "CEO", "ann@co.com", ""),
		emp("b", "Bob", "VP", "bob@co.com", "a"),
		emp("c", "Cat", "Engineer", "cat@co.com", "b"),
		emp("d", "Dan", "VP", "dan@co.com", "a"),
	}
	root := hierarchy.Build(employees, hierarchy.NoOverride(), "", "")

	flat := hierarchy.Flatten(root)
	got := make([]string, 0, len(flat))
	for _, emp := range flat {
		got = append(got, emp.ID)
		if len(emp.Children) != 0 {
			t.Errorf("flattened record %s still carries children", emp.ID)
		}
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("flatten order = %v, want %v", got, want)
	}
}

func TestUniqueFieldValues(t *testing.T) {
	employees := []*models.Employee{
		{ID: "1", Department: "Engineering"},
		{ID: "2", Department: "engineering"},
		{ID: "3", Department: "  Accounting "},
		{ID: "4", Department: ""},
	}
	got := hierarchy.UniqueFieldValues(employees, func(e *models.Employee) string { return e.Department })
	if want := []string{"Accounting", "Engineering"}; !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueFieldValues = %v, want %v", got, want)
	}
}
