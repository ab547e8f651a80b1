// internal/domain/models/employee.go
package models

// FilterReason tags why an employee was excluded from the visible chart.
// Carried as a set on the record; a record with any tag is "filtered".
type FilterReason string

const (
	FilterDisabled          FilterReason = "filter_disabled"
	FilterGuest             FilterReason = "filter_guest"
	FilterNoTitle           FilterReason = "filter_no_title"
	FilterIgnoredTitle      FilterReason = "filter_ignored_title"
	FilterIgnoredDepartment FilterReason = "filter_ignored_department"
	FilterIgnoredEmployee   FilterReason = "filter_ignored_employee"
)

// Employee is one directory record from Microsoft Graph, flattened to the
// shape the chart client consumes. The flat employee list is the single
// source of truth; the hierarchy is rebuilt from it on every refresh.
//
// ManagerID is a lookup key into the same list, not an owning reference.
// Children is empty on fetched records and populated only by the hierarchy
// builder.
type Employee struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Title             string `json:"title"`
	Department        string `json:"department"`
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`

	Phone          string `json:"phone"`
	BusinessPhone  string `json:"businessPhone"`
	Location       string `json:"location"`
	OfficeLocation string `json:"officeLocation,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Country        string `json:"country,omitempty"`
	UsageLocation  string `json:"usageLocation,omitempty"`
	FullAddress    string `json:"fullAddress,omitempty"`

	ManagerID *string `json:"managerId"`

	EmployeeHireDate string `json:"employeeHireDate,omitempty"`
	HireDate         string `json:"hireDate,omitempty"`
	IsNewEmployee    bool   `json:"isNewEmployee"`

	PhotoURL string `json:"photoUrl,omitempty"`

	AccountEnabled bool     `json:"accountEnabled"`
	UserType       string   `json:"userType"`
	LicenseCount   int      `json:"licenseCount"`
	LicenseSkus    []string `json:"licenseSkus"`
	LicenseSkuIDs  []string `json:"licenseSkuIds"`

	MailboxType     *string `json:"mailboxType"`
	IsSharedMailbox *bool   `json:"isSharedMailbox"`

	FilterReasons []FilterReason `json:"filterReasons,omitempty"`

	Children []*Employee `json:"children"`
}

// HasManager reports whether the record carries a non-empty manager id.
func (e *Employee) HasManager() bool {
	return e.ManagerID != nil && *e.ManagerID != ""
}

// IsFiltered reports whether the record was excluded upstream for policy
// reasons (disabled, guest, ignored, ...).
func (e *Employee) IsFiltered() bool {
	return len(e.FilterReasons) > 0
}
