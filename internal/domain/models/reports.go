// internal/domain/models/reports.go
package models

// MissingReason classifies why an employee could not be placed under the
// hierarchy root.
type MissingReason string

const (
	MissingNoManager       MissingReason = "no_manager"
	MissingManagerNotFound MissingReason = "manager_not_found"
	MissingDetached        MissingReason = "detached"

	// ReasonFiltered is reported instead of the structural reason when the
	// employee carries filter tags; the structural reason is preserved in
	// MissingReason for diagnostics.
	ReasonFiltered = "filtered"
)

// MissingManagerRecord is one row of the missing-manager report: an employee
// that is not reachable from the hierarchy root, with denormalized display
// fields copied from the source record.
type MissingManagerRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	Department    string `json:"department"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	BusinessPhone string `json:"businessPhone"`
	Location      string `json:"location"`
	ManagerName   string `json:"managerName"`

	// Reason is user-facing; "filtered" overrides the structural reason.
	Reason string `json:"reason"`
	// MissingReason is the structural classification regardless of filters.
	MissingReason MissingReason `json:"missingReason"`

	FilterReasons []FilterReason `json:"filterReasons"`

	AccountEnabled  bool     `json:"accountEnabled"`
	UserType        string   `json:"userType"`
	LicenseCount    int      `json:"licenseCount"`
	LicenseSkus     []string `json:"licenseSkus"`
	LicenseSkuIDs   []string `json:"licenseSkuIds"`
	MailboxType     *string  `json:"mailboxType"`
	IsSharedMailbox *bool    `json:"isSharedMailbox"`
}

// DisabledUserRecord is one row of the disabled-users report.
type DisabledUserRecord struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Title             string   `json:"title"`
	Department        string   `json:"department"`
	Email             string   `json:"email"`
	UserPrincipalName string   `json:"userPrincipalName"`
	Phone             string   `json:"phone"`
	BusinessPhone     string   `json:"businessPhone"`
	Location          string   `json:"location"`
	City              string   `json:"city,omitempty"`
	State             string   `json:"state,omitempty"`
	Country           string   `json:"country,omitempty"`
	UsageLocation     string   `json:"usageLocation,omitempty"`
	AccountEnabled    bool     `json:"accountEnabled"`
	UserType          string   `json:"userType"`
	LicenseCount      int      `json:"licenseCount"`
	LicenseSkus       []string `json:"licenseSkus"`
	LicenseSkuIDs     []string `json:"licenseSkuIds"`
	HireDate          string   `json:"hireDate,omitempty"`

	// DisabledDate is Graph's employeeLeaveDateTime when present, otherwise
	// the first time this service observed the account disabled.
	DisabledDate        string `json:"disabledDate,omitempty"`
	FirstSeenDisabledAt string `json:"firstSeenDisabledAt,omitempty"`
	DisabledDays        *int   `json:"disabledDays"`
}

// RecentHireRecord is one row of the recently-hired report.
type RecentHireRecord struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Title             string `json:"title"`
	Department        string `json:"department"`
	Email             string `json:"email"`
	UserPrincipalName string `json:"userPrincipalName"`
	Phone             string `json:"phone"`
	BusinessPhone     string `json:"businessPhone"`
	Location          string `json:"location"`
	HireDate          string `json:"hireDate"`
	DaysSinceHire     *int   `json:"daysSinceHire"`
	ManagerName       string `json:"managerName"`
}

// LastLoginRecord is one row of the last sign-in activity report, built from
// the beta signInActivity fields.
type LastLoginRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Department     string   `json:"department"`
	Email          string   `json:"email"`
	AccountEnabled bool     `json:"accountEnabled"`
	UserType       string   `json:"userType"`
	LicenseCount   int      `json:"licenseCount"`
	LicenseSkus    []string `json:"licenseSkus"`
	LicenseSkuIDs  []string `json:"licenseSkuIds"`

	MailboxType     *string `json:"mailboxType"`
	IsSharedMailbox *bool   `json:"isSharedMailbox"`

	LastActivityDate              string `json:"lastActivityDate,omitempty"`
	DaysSinceLastActivity         *int   `json:"daysSinceLastActivity"`
	LastInteractiveSignIn         string `json:"lastInteractiveSignIn,omitempty"`
	DaysSinceInteractiveSignIn    *int   `json:"daysSinceInteractiveSignIn"`
	LastNonInteractiveSignIn      string `json:"lastNonInteractiveSignIn,omitempty"`
	DaysSinceNonInteractiveSignIn *int   `json:"daysSinceNonInteractiveSignIn"`
	NeverSignedIn                 bool   `json:"neverSignedIn"`
}
