// internal/app/system/filters/filters.go
//
// Package filters implements the admin-configured visibility rules: ignored
// departments, titles, and employees. Values are normalized before
// comparison so punctuation, spacing, and case differences between the
// admin's list and directory data don't matter.
package filters

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

var (
	legacySplitRe   = regexp.MustCompile(`\s*[;,]+\s*`)
	edgePunctRe     = regexp.MustCompile(`^[\s\-–—|]+|[\s\-–—|]+$`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes one filter value: strip edge punctuation, collapse
// internal whitespace, trim, lowercase. Empty input stays empty.
func Normalize(value string) string {
	if value == "" {
		return ""
	}
	cleaned := edgePunctRe.ReplaceAllString(value, "")
	cleaned = whitespaceRunRe.ReplaceAllString(cleaned, " ")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// ParseValues turns the stored filter text into a normalized set. Two forms
// are accepted: a JSON array of strings (the current UI writes this) and the
// legacy semicolon/comma separated plain text. A JSON-looking value that
// fails to decode yields the empty set.
func ParseValues(raw string) map[string]bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return map[string]bool{}
	}

	var parts []string
	if strings.HasPrefix(text, "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(text), &decoded); err == nil {
			parts = decoded
		}
	} else {
		parts = legacySplitRe.Split(text, -1)
	}

	set := make(map[string]bool, len(parts))
	for _, part := range parts {
		if normalized := Normalize(part); normalized != "" {
			set[normalized] = true
		}
	}
	return set
}

// DepartmentIgnored reports whether the department matches the ignored set.
func DepartmentIgnored(department string, ignored map[string]bool) bool {
	if len(ignored) == 0 {
		return false
	}
	return ignored[Normalize(department)]
}

// TitleIgnored reports whether the job title matches the ignored set.
func TitleIgnored(title string, ignored map[string]bool) bool {
	if len(ignored) == 0 {
		return false
	}
	return ignored[Normalize(title)]
}

// EmployeeIgnored matches an employee against the ignored set by name, email,
// userPrincipalName, and the name+contact combo spellings the settings UI
// has produced over time ("Name <contact>", "Name (contact)", and the
// dash-joined variants in both orders).
func EmployeeIgnored(name, email, userPrincipalName string, ignored map[string]bool) bool {
	if len(ignored) == 0 {
		return false
	}

	candidates := make(map[string]bool)
	for _, value := range []string{name, email, userPrincipalName} {
		if normalized := Normalize(value); normalized != "" {
			candidates[normalized] = true
		}
	}

	if name != "" {
		for _, contact := range []string{email, userPrincipalName} {
			if contact == "" {
				continue
			}
			combos := []string{
				name + " <" + contact + ">",
				name + " (" + contact + ")",
				name + " - " + contact,
				contact + " (" + name + ")",
				contact + " - " + name,
			}
			for _, combo := range combos {
				if normalized := Normalize(combo); normalized != "" {
					candidates[normalized] = true
				}
			}
		}
	}

	for candidate := range candidates {
		if ignored[candidate] {
			return true
		}
	}
	return false
}

// OptionLabel builds the "Name <contact>" dropdown label for an employee,
// or just the part that exists. Returns "" when there is nothing to show.
func OptionLabel(name, email, userPrincipalName string) string {
	name = strings.TrimSpace(name)
	contact := strings.TrimSpace(email)
	if contact == "" {
		contact = strings.TrimSpace(userPrincipalName)
	}
	switch {
	case name != "" && contact != "":
		return name + " <" + contact + ">"
	case name != "":
		return name
	default:
		return contact
	}
}

// EmployeeOptionLabels collects deduplicated, sorted dropdown labels for the
// ignored-employees picker. Dedup keys on the normalized contact first, then
// name, then the label itself.
func EmployeeOptionLabels(employees []*models.Employee) []string {
	options := make(map[string]string)
	for _, emp := range employees {
		label := OptionLabel(emp.Name, emp.Email, emp.UserPrincipalName)
		if label == "" {
			continue
		}
		contact := strings.TrimSpace(emp.Email)
		if contact == "" {
			contact = strings.TrimSpace(emp.UserPrincipalName)
		}
		key := Normalize(contact)
		if key == "" {
			key = Normalize(emp.Name)
		}
		if key == "" {
			key = Normalize(label)
		}
		if key == "" {
			continue
		}
		if _, ok := options[key]; !ok {
			options[key] = label
		}
	}

	out := make([]string, 0, len(options))
	for _, label := range options {
		out = append(out, label)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
