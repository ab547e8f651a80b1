// internal/app/features/reportsapi/filters.go
package reportsapi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

// recordFilters carries the parsed include/exclude query parameters shared
// by the audit reports. Each endpoint supplies its own defaults, so the zero
// value is never used directly.
type recordFilters struct {
	IncludeUserMailboxes          bool
	IncludeSharedMailboxes        bool
	IncludeRoomEquipmentMailboxes bool
	IncludeEnabled                bool
	IncludeDisabled               bool
	IncludeLicensed               bool
	IncludeUnlicensed             bool
	IncludeMembers                bool
	IncludeGuests                 bool

	IncludeNeverSignedIn bool
	InactiveDays         *int
	InactiveDaysMax      *int
}

// parseMissingManagerFilters reads the missing-manager report parameters.
// The defaults hide the noise: disabled accounts, guests, and the shared and
// room/equipment mailboxes that legitimately have no manager.
func parseMissingManagerFilters(q url.Values) recordFilters {
	return recordFilters{
		IncludeUserMailboxes:          boolParam(q, "includeUserMailboxes", true),
		IncludeSharedMailboxes:        boolParam(q, "includeSharedMailboxes", false),
		IncludeRoomEquipmentMailboxes: boolParam(q, "includeRoomEquipmentMailboxes", false),
		IncludeEnabled:                boolParam(q, "includeEnabled", true),
		IncludeDisabled:               boolParam(q, "includeDisabled", false),
		IncludeLicensed:               boolParam(q, "includeLicensed", true),
		IncludeUnlicensed:             boolParam(q, "includeUnlicensed", true),
		IncludeMembers:                boolParam(q, "includeMembers", true),
		IncludeGuests:                 boolParam(q, "includeGuests", false),
	}
}

// parseLastLoginFilters reads the sign-in activity parameters. Everything is
// included by default; inactiveDays / inactiveDaysMax bound the days since
// the last activity.
func parseLastLoginFilters(q url.Values) recordFilters {
	return recordFilters{
		IncludeUserMailboxes:          boolParam(q, "includeUserMailboxes", true),
		IncludeSharedMailboxes:        boolParam(q, "includeSharedMailboxes", true),
		IncludeRoomEquipmentMailboxes: boolParam(q, "includeRoomEquipmentMailboxes", true),
		IncludeEnabled:                boolParam(q, "includeEnabled", true),
		IncludeDisabled:               boolParam(q, "includeDisabled", true),
		IncludeLicensed:               boolParam(q, "includeLicensed", true),
		IncludeUnlicensed:             boolParam(q, "includeUnlicensed", true),
		IncludeMembers:                boolParam(q, "includeMembers", true),
		IncludeGuests:                 boolParam(q, "includeGuests", true),
		IncludeNeverSignedIn:          boolParam(q, "includeNeverSignedIn", true),
		InactiveDays:                  intParam(q, "inactiveDays"),
		InactiveDaysMax:               intParam(q, "inactiveDaysMax"),
	}
}

// parseFilteredUsersFilters reads the filtered-users parameters. The legacy
// licensedOnly parameter is honored only when the newer includeUnlicensed is
// absent, so old bookmarked URLs keep working.
func parseFilteredUsersFilters(q url.Values) recordFilters {
	f := recordFilters{
		IncludeUserMailboxes:          boolParam(q, "includeUserMailboxes", true),
		IncludeSharedMailboxes:        boolParam(q, "includeSharedMailboxes", true),
		IncludeRoomEquipmentMailboxes: boolParam(q, "includeRoomEquipmentMailboxes", true),
		IncludeEnabled:                boolParam(q, "includeEnabled", true),
		IncludeDisabled:               boolParam(q, "includeDisabled", true),
		IncludeLicensed:               boolParam(q, "includeLicensed", true),
		IncludeUnlicensed:             boolParam(q, "includeUnlicensed", true),
		IncludeMembers:                boolParam(q, "includeMembers", true),
		IncludeGuests:                 boolParam(q, "includeGuests", true),
	}
	if !q.Has("includeUnlicensed") && q.Has("licensedOnly") {
		f.IncludeUnlicensed = !boolParam(q, "licensedOnly", false)
	}
	return f
}

func (f recordFilters) applied() map[string]any {
	out := map[string]any{
		"includeUserMailboxes":          f.IncludeUserMailboxes,
		"includeSharedMailboxes":        f.IncludeSharedMailboxes,
		"includeRoomEquipmentMailboxes": f.IncludeRoomEquipmentMailboxes,
		"includeEnabled":                f.IncludeEnabled,
		"includeDisabled":               f.IncludeDisabled,
		"includeLicensed":               f.IncludeLicensed,
		"includeUnlicensed":             f.IncludeUnlicensed,
		"includeMembers":                f.IncludeMembers,
		"includeGuests":                 f.IncludeGuests,
	}
	if f.InactiveDays != nil {
		out["inactiveDays"] = *f.InactiveDays
	}
	if f.InactiveDaysMax != nil {
		out["inactiveDaysMax"] = *f.InactiveDaysMax
	}
	return out
}

func (f recordFilters) appliedWithSignIn() map[string]any {
	out := f.applied()
	out["includeNeverSignedIn"] = f.IncludeNeverSignedIn
	return out
}

func (f recordFilters) matchMissing(rec models.MissingManagerRecord) bool {
	return f.mailboxAllowed(rec.MailboxType, rec.IsSharedMailbox) &&
		f.accountAllowed(rec.AccountEnabled) &&
		f.licenseAllowed(rec.LicenseCount) &&
		f.userTypeAllowed(rec.UserType)
}

func (f recordFilters) matchLastLogin(rec models.LastLoginRecord) bool {
	if !f.mailboxAllowed(rec.MailboxType, rec.IsSharedMailbox) ||
		!f.accountAllowed(rec.AccountEnabled) ||
		!f.licenseAllowed(rec.LicenseCount) ||
		!f.userTypeAllowed(rec.UserType) {
		return false
	}
	if rec.NeverSignedIn {
		// A never-used account has unbounded inactivity, so only the
		// explicit toggle and an upper bound can exclude it.
		return f.IncludeNeverSignedIn && f.InactiveDaysMax == nil
	}
	days := rec.DaysSinceLastActivity
	if f.InactiveDays != nil && (days == nil || *days < *f.InactiveDays) {
		return false
	}
	if f.InactiveDaysMax != nil && (days == nil || *days > *f.InactiveDaysMax) {
		return false
	}
	return true
}

func (f recordFilters) matchEmployee(emp *models.Employee) bool {
	return f.mailboxAllowed(emp.MailboxType, emp.IsSharedMailbox) &&
		f.accountAllowed(emp.AccountEnabled) &&
		f.licenseAllowed(emp.LicenseCount) &&
		f.userTypeAllowed(emp.UserType)
}

func (f recordFilters) mailboxAllowed(mailboxType *string, isShared *bool) bool {
	switch mailboxCategory(mailboxType, isShared) {
	case "shared":
		return f.IncludeSharedMailboxes
	case "roomequipment":
		return f.IncludeRoomEquipmentMailboxes
	default:
		return f.IncludeUserMailboxes
	}
}

func (f recordFilters) accountAllowed(enabled bool) bool {
	if enabled {
		return f.IncludeEnabled
	}
	return f.IncludeDisabled
}

func (f recordFilters) licenseAllowed(count int) bool {
	if count > 0 {
		return f.IncludeLicensed
	}
	return f.IncludeUnlicensed
}

func (f recordFilters) userTypeAllowed(userType string) bool {
	if strings.EqualFold(userType, "guest") {
		return f.IncludeGuests
	}
	return f.IncludeMembers
}

// mailboxCategory buckets a record as "user", "shared", or "roomequipment".
// Records fetched before mailbox detection existed have neither field and
// count as user mailboxes.
func mailboxCategory(mailboxType *string, isShared *bool) string {
	if isShared != nil && *isShared {
		return "shared"
	}
	if mailboxType != nil {
		switch strings.ToLower(strings.TrimSpace(*mailboxType)) {
		case "shared":
			return "shared"
		case "room", "equipment", "roomequipment", "room_equipment":
			return "roomequipment"
		}
	}
	return "user"
}

// disabledFilters covers the disabled-user reports, which predate the full
// include/exclude matrix and kept their original licensedOnly switch.
type disabledFilters struct {
	LicensedOnly   bool
	IncludeMembers bool
	IncludeGuests  bool
	RecentDays     *int
}

func parseDisabledFilters(q url.Values, licensedOnlyDefault bool) disabledFilters {
	return disabledFilters{
		LicensedOnly:   boolParam(q, "licensedOnly", licensedOnlyDefault),
		IncludeMembers: boolParam(q, "includeMembers", true),
		IncludeGuests:  boolParam(q, "includeGuests", false),
		RecentDays:     intParam(q, "recentDays"),
	}
}

func (f disabledFilters) applied() map[string]any {
	out := map[string]any{
		"licensedOnly":   f.LicensedOnly,
		"includeMembers": f.IncludeMembers,
		"includeGuests":  f.IncludeGuests,
	}
	if f.RecentDays != nil {
		out["recentDays"] = *f.RecentDays
	}
	return out
}

func (f disabledFilters) match(rec models.DisabledUserRecord) bool {
	if f.LicensedOnly && rec.LicenseCount == 0 {
		return false
	}
	if strings.EqualFold(rec.UserType, "guest") {
		if !f.IncludeGuests {
			return false
		}
	} else if !f.IncludeMembers {
		return false
	}
	if f.RecentDays != nil {
		if rec.DisabledDays == nil || *rec.DisabledDays > *f.RecentDays {
			return false
		}
	}
	return true
}

// boolParam reads a boolean query parameter; absent means def, anything but
// "true"/"1" means false.
func boolParam(q url.Values, name string, def bool) bool {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def
	}
	return strings.EqualFold(raw, "true") || raw == "1"
}

// intParam reads a non-negative integer parameter; absent or invalid means
// nil (no bound).
func intParam(q url.Values, name string) *int {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
