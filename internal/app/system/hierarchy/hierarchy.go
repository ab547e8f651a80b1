// internal/app/system/hierarchy/hierarchy.go
//
// Package hierarchy turns the flat employee snapshot into a single rooted
// tree and cross-references the two to find employees that never made it
// under the root. Both operations are pure: they work on private copies and
// touch no shared state, so a scheduled refresh and an on-demand request can
// run them concurrently on the same snapshot.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

// rootTitleKeywords drive heuristic root detection, checked per candidate in
// this order as case-insensitive substrings of the job title.
var rootTitleKeywords = []string{
	"chief executive",
	"ceo",
	"president",
	"chair",
	"director",
	"head",
}

// RootOverride distinguishes "no override supplied" from "override supplied
// as empty". The empty form forces heuristic auto-detect and suppresses the
// configured defaults; the zero value means no override.
type RootOverride struct {
	set   bool
	email string
}

// NoOverride reports that the caller supplied no per-request root.
func NoOverride() RootOverride { return RootOverride{} }

// OverrideEmail carries a per-request root email. An empty (or blank) email
// is meaningful: it forces auto-detect even when a default root is
// configured.
func OverrideEmail(email string) RootOverride {
	return RootOverride{set: true, email: email}
}

// Present reports whether an override was supplied at all.
func (o RootOverride) Present() bool { return o.set }

// Email returns the override value with surrounding whitespace removed.
func (o RootOverride) Email() string { return strings.TrimSpace(o.email) }

// Build constructs the org tree from a flat employee list.
//
// Root precedence: a present override email (exact, case-sensitive match on
// the stored value) wins outright; if the override is present but blank or
// unmatched the configured defaults are NOT consulted and selection falls
// straight to the heuristic. With no override, the configured email is tried
// first, then the configured directory id, then the heuristic.
//
// The heuristic picks, among employees with no resolvable manager, the first
// whose title carries a leadership keyword, else the first candidate; with
// no candidates at all (every row claims a resolvable manager, which implies
// a cycle) it picks the employee with the most direct reports, and failing
// that the first employee in input order.
//
// The returned tree is built from copies; the input records are never
// mutated. The root's managerId is forced null and the root is removed from
// every other node's child list. Returns nil only for an empty input.
func Build(employees []*models.Employee, override RootOverride, cfgEmail, cfgID string) *models.Employee {
	if len(employees) == 0 {
		return nil
	}

	wantEmail := strings.TrimSpace(cfgEmail)
	if override.Present() {
		wantEmail = override.Email()
	}

	index := make(map[string]*models.Employee, len(employees))
	for _, emp := range employees {
		clone := *emp
		clone.Children = []*models.Employee{}
		index[emp.ID] = &clone
	}

	var root *models.Employee
	if wantEmail != "" {
		for _, emp := range employees {
			if emp.Email == wantEmail {
				root = index[emp.ID]
				break
			}
		}
	}
	if root == nil && !override.Present() {
		if id := strings.TrimSpace(cfgID); id != "" {
			root = index[id]
		}
	}

	if root != nil {
		root.ManagerID = nil
		for _, emp := range employees {
			node := index[emp.ID]
			if node.ID == root.ID {
				continue
			}
			if emp.HasManager() {
				if manager, ok := index[*emp.ManagerID]; ok {
					appendChild(manager, node)
				}
			}
		}
		// The root may still appear as someone's subordinate in inconsistent
		// source data; strip it from every child list.
		for _, emp := range employees {
			node := index[emp.ID]
			kept := node.Children[:0]
			for _, child := range node.Children {
				if child.ID != root.ID {
					kept = append(kept, child)
				}
			}
			node.Children = kept
		}
		return root
	}

	// Heuristic auto-detect: wire up every resolvable manager edge and track
	// employees with no manager at all as root candidates. A managerId that
	// points at a missing row contributes neither an edge nor a candidate.
	var candidates []*models.Employee
	for _, emp := range employees {
		node := index[emp.ID]
		if emp.HasManager() {
			if manager, ok := index[*emp.ManagerID]; ok {
				appendChild(manager, node)
			}
			continue
		}
		if !containsNode(candidates, node) {
			candidates = append(candidates, node)
		}
	}

	if len(candidates) > 0 {
	scan:
		for _, candidate := range candidates {
			title := strings.ToLower(candidate.Title)
			for _, keyword := range rootTitleKeywords {
				if strings.Contains(title, keyword) {
					root = candidate
					break scan
				}
			}
		}
		if root == nil {
			root = candidates[0]
		}
	} else {
		maxReports := 0
		for _, emp := range employees {
			node := index[emp.ID]
			if len(node.Children) > maxReports {
				maxReports = len(node.Children)
				root = node
			}
		}
	}

	if root == nil {
		root = index[employees[0].ID]
	}
	root.ManagerID = nil
	return root
}

// appendChild attaches child to manager unless the same node is already
// listed, guarding against duplicate edges when fetch partitions overlap.
func appendChild(manager, child *models.Employee) {
	for _, existing := range manager.Children {
		if existing == child {
			return
		}
	}
	manager.Children = append(manager.Children, child)
}

func containsNode(nodes []*models.Employee, node *models.Employee) bool {
	for _, existing := range nodes {
		if existing == node {
			return true
		}
	}
	return false
}

// Flatten walks a tree depth-first and returns the records as a flat list
// with empty child slices, preserving pre-order. Used when only a cached
// tree is available and a flat list is needed.
func Flatten(root *models.Employee) []*models.Employee {
	if root == nil {
		return nil
	}
	var out []*models.Employee
	stack := []*models.Employee{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		flat := *node
		flat.Children = []*models.Employee{}
		out = append(out, &flat)
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return out
}

// UniqueFieldValues returns the distinct non-blank values selected by get,
// deduplicated case-insensitively (first spelling wins) and sorted
// case-insensitively.
func UniqueFieldValues(employees []*models.Employee, get func(*models.Employee) string) []string {
	seen := make(map[string]string)
	for _, emp := range employees {
		value := strings.TrimSpace(get(emp))
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; !ok {
			seen[key] = value
		}
	}
	out := make([]string, 0, len(seen))
	for _, value := range seen {
		out = append(out, value)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
