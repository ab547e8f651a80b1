// internal/domain/models/orgsettings.go
package models

import "time"

// OrgSettings is the single editable configuration document for the chart.
// One document per deployment (the store keys it by a fixed id).
type OrgSettings struct {
	ChartTitle  string `bson:"chart_title" json:"chartTitle"`
	HeaderColor string `bson:"header_color" json:"headerColor"`

	// NodeColors maps chart depth ("level0".."level7") to a hex color.
	NodeColors map[string]string `bson:"node_colors" json:"nodeColors"`

	AutoUpdateEnabled bool   `bson:"auto_update_enabled" json:"autoUpdateEnabled"`
	UpdateTime        string `bson:"update_time" json:"updateTime"` // "HH:MM", UTC

	CollapseLevel     string `bson:"collapse_level" json:"collapseLevel"`
	SearchAutoExpand  bool   `bson:"search_auto_expand" json:"searchAutoExpand"`
	SearchHighlight   bool   `bson:"search_highlight" json:"searchHighlight"`
	ShowNames         bool   `bson:"show_names" json:"showNames"`
	ShowDepartments   bool   `bson:"show_departments" json:"showDepartments"`
	ShowJobTitles     bool   `bson:"show_job_titles" json:"showJobTitles"`
	ShowOffice        bool   `bson:"show_office" json:"showOffice"`
	ShowEmployeeCount bool   `bson:"show_employee_count" json:"showEmployeeCount"`
	ShowProfileImages bool   `bson:"show_profile_images" json:"showProfileImages"`

	PrintOrientation string `bson:"print_orientation" json:"printOrientation"`
	PrintSize        string `bson:"print_size" json:"printSize"`

	// ExportXlsxColumns maps a column key to "show", "hide", or "admin"
	// (visible only to signed-in admins).
	ExportXlsxColumns map[string]string `bson:"export_xlsx_columns" json:"exportXlsxColumns"`

	// Root selection defaults; a per-session override takes precedence.
	TopLevelUserEmail string `bson:"top_level_user_email" json:"topLevelUserEmail"`
	TopLevelUserID    string `bson:"top_level_user_id" json:"topLevelUserId"`

	NewEmployeeMonths int `bson:"new_employee_months" json:"newEmployeeMonths"`

	MultiLineChildrenEnabled    bool `bson:"multi_line_children_enabled" json:"multiLineChildrenEnabled"`
	MultiLineChildrenThreshold  int  `bson:"multi_line_children_threshold" json:"multiLineChildrenThreshold"`
	CompactSiblingSpacingEnabled bool `bson:"compact_sibling_spacing_enabled" json:"compactSiblingSpacingEnabled"`

	HideDisabledUsers bool `bson:"hide_disabled_users" json:"hideDisabledUsers"`
	HideGuestUsers    bool `bson:"hide_guest_users" json:"hideGuestUsers"`
	HideNoTitle       bool `bson:"hide_no_title" json:"hideNoTitle"`

	// Raw filter text as entered by the admin; parsed by the filters package.
	// Accepts semicolon/comma separated values or a JSON array.
	IgnoredEmployees   string `bson:"ignored_employees" json:"ignoredEmployees"`
	IgnoredDepartments string `bson:"ignored_departments" json:"ignoredDepartments"`
	IgnoredTitles      string `bson:"ignored_titles" json:"ignoredTitles"`

	// CustomDirectoryContacts is "name,number" lines appended to the phone
	// directory export.
	CustomDirectoryContacts string `bson:"custom_directory_contacts" json:"customDirectoryContacts"`

	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// DefaultOrgSettings returns the settings used before an admin saves any.
func DefaultOrgSettings() OrgSettings {
	return OrgSettings{
		ChartTitle:  DefaultChartTitle,
		HeaderColor: "#0078D4",
		NodeColors: map[string]string{
			"level0": "#90EE90",
			"level1": "#FFFFE0",
			"level2": "#E0F2FF",
			"level3": "#FFE4E1",
			"level4": "#E8DFF5",
			"level5": "#FFEAA7",
			"level6": "#FAD7FF",
			"level7": "#D7F8FF",
		},
		AutoUpdateEnabled: true,
		UpdateTime:        "20:00",
		CollapseLevel:     "2",
		SearchAutoExpand:  true,
		SearchHighlight:   true,
		ShowNames:         true,
		ShowDepartments:   true,
		ShowJobTitles:     true,
		ShowOffice:        false,
		ShowEmployeeCount: true,
		ShowProfileImages: true,
		PrintOrientation:  "landscape",
		PrintSize:         "a4",
		ExportXlsxColumns: map[string]string{
			"name":          "show",
			"title":         "show",
			"department":    "show",
			"email":         "show",
			"phone":         "show",
			"businessPhone": "show",
			"hireDate":      "admin",
			"country":       "show",
			"state":         "show",
			"city":          "show",
			"office":        "show",
			"manager":       "show",
		},
		NewEmployeeMonths:          3,
		MultiLineChildrenEnabled:   true,
		MultiLineChildrenThreshold: 20,
		HideDisabledUsers:          true,
		HideGuestUsers:             true,
		HideNoTitle:                true,
	}
}

// DefaultChartTitle is used when settings don't exist yet.
const DefaultChartTitle = "DB Auto Org Chart"
