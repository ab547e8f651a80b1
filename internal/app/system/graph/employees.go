// internal/app/system/graph/employees.go
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/system/filters"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

// employeeSelectFields is everything the directory listing needs; manager is
// expanded inline so no per-user follow-up call is required.
const employeeSelectFields = "id,displayName,jobTitle,department,mail,userPrincipalName,mobilePhone," +
	"businessPhones,officeLocation,city,state,country,usageLocation,streetAddress," +
	"postalCode,employeeHireDate,accountEnabled,userType,assignedLicenses"

// FetchOptions are the visibility rules applied while mapping users, derived
// from the saved settings by the caller.
type FetchOptions struct {
	HideDisabledUsers bool
	HideGuestUsers    bool
	HideNoTitle       bool

	IgnoredTitles      map[string]bool
	IgnoredDepartments map[string]bool
	IgnoredEmployees   map[string]bool

	NewEmployeeMonths int
}

// EmployeePartitions is the three-way split of the directory: employees that
// appear on the chart, filtered users that still hold licenses (the license
// audit), and every filtered user.
type EmployeePartitions struct {
	Visible             []*models.Employee
	FilteredWithLicense []*models.Employee
	Filtered            []*models.Employee
}

// FetchAllEmployees lists every directory user, applies the visibility
// rules, and partitions the results. Filtered records keep the reason tags
// that excluded them. Mailbox metadata on filtered users is enriched from
// the beta mailboxSettings endpoint (bounded lookups).
func (c *Client) FetchAllEmployees(ctx context.Context, opts FetchOptions) (*EmployeePartitions, error) {
	skuMap, err := c.FetchSubscribedSKUMap(ctx)
	if err != nil {
		// The listing still works without friendly SKU names.
		c.log.Warn("failed to load subscribed SKUs", zap.Error(err))
		skuMap = map[string]string{}
	}

	url := fmt.Sprintf("%s/users?$select=%s&$expand=manager($select=id,displayName)",
		c.cfg.Endpoint, employeeSelectFields)

	parts := &EmployeePartitions{
		Visible:             []*models.Employee{},
		FilteredWithLicense: []*models.Employee{},
		Filtered:            []*models.Employee{},
	}
	now := c.now()

	err = c.listUsers(ctx, url, false, func(user graphUser) {
		skuIDs, skuLabels := mapLicenses(user, skuMap)
		reasons := classifyFilterReasons(user, opts)

		if len(reasons) > 0 {
			record := baseEmployee(user, skuIDs, skuLabels)
			record.FilterReasons = reasons
			parts.Filtered = append(parts.Filtered, record)
			if len(skuIDs) > 0 {
				clone := *record
				parts.FilteredWithLicense = append(parts.FilteredWithLicense, &clone)
			}
			return
		}

		if user.DisplayName == "" {
			return
		}
		record := baseEmployee(user, skuIDs, skuLabels)
		record.UserType = user.UserType
		record.OfficeLocation = user.OfficeLocation
		record.FullAddress = joinAddress(user)
		record.EmployeeHireDate = user.EmployeeHireDate
		if hired := ParseGraphTime(user.EmployeeHireDate); hired != nil {
			record.HireDate = FormatISO(hired)
			cutoff := now.AddDate(0, 0, -opts.NewEmployeeMonths*30)
			record.IsNewEmployee = hired.After(cutoff)
		}
		record.PhotoURL = "/api/photo/" + user.ID
		parts.Visible = append(parts.Visible, record)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch employees: %w", err)
	}

	c.log.Info("fetched employees from graph",
		zap.Int("visible", len(parts.Visible)),
		zap.Int("filtered", len(parts.Filtered)),
		zap.Int("filtered_licensed", len(parts.FilteredWithLicense)))

	if len(parts.Filtered) > 0 {
		c.enrichEmployeeMailboxes(ctx, parts.Filtered, 0)
		copyMailboxMetadata(parts.Filtered, parts.FilteredWithLicense)
	}
	return parts, nil
}

// baseEmployee maps the fields common to visible and filtered records.
func baseEmployee(user graphUser, skuIDs, skuLabels []string) *models.Employee {
	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}
	record := &models.Employee{
		ID:                user.ID,
		Name:              orDefault(user.DisplayName, "Unknown"),
		Title:             orDefault(user.JobTitle, "No Title"),
		Department:        orDefault(user.Department, "No Department"),
		Email:             email,
		UserPrincipalName: user.UserPrincipalName,
		Phone:             user.MobilePhone,
		BusinessPhone:     user.businessPhone(),
		Location:          user.OfficeLocation,
		City:              user.City,
		State:             user.State,
		Country:           user.Country,
		UsageLocation:     user.UsageLocation,
		AccountEnabled:    user.enabled(),
		UserType:          strings.ToLower(user.UserType),
		LicenseCount:      len(skuIDs),
		LicenseSkus:       skuLabels,
		LicenseSkuIDs:     skuIDs,
		Children:          []*models.Employee{},
	}
	if user.Manager != nil && user.Manager.ID != "" {
		managerID := user.Manager.ID
		record.ManagerID = &managerID
	}
	return record
}

func classifyFilterReasons(user graphUser, opts FetchOptions) []models.FilterReason {
	var reasons []models.FilterReason
	if opts.HideDisabledUsers && !user.enabled() {
		reasons = append(reasons, models.FilterDisabled)
	}
	if opts.HideGuestUsers && strings.ToLower(user.UserType) == "guest" {
		reasons = append(reasons, models.FilterGuest)
	}
	if opts.HideNoTitle && strings.TrimSpace(user.JobTitle) == "" {
		reasons = append(reasons, models.FilterNoTitle)
	}
	if len(opts.IgnoredTitles) > 0 && opts.IgnoredTitles[filters.Normalize(user.JobTitle)] {
		reasons = append(reasons, models.FilterIgnoredTitle)
	}
	if filters.DepartmentIgnored(user.Department, opts.IgnoredDepartments) {
		reasons = append(reasons, models.FilterIgnoredDepartment)
	}
	if filters.EmployeeIgnored(user.DisplayName, user.Mail, user.UserPrincipalName, opts.IgnoredEmployees) {
		reasons = append(reasons, models.FilterIgnoredEmployee)
	}
	return reasons
}

// mapLicenses resolves assigned SKU ids to friendly part numbers,
// deduplicating labels case-insensitively and sorting them.
func mapLicenses(user graphUser, skuMap map[string]string) (ids, labels []string) {
	ids = []string{}
	labels = []string{}
	seen := map[string]bool{}
	for _, entry := range user.AssignedLicenses {
		if entry.SkuID == "" {
			continue
		}
		ids = append(ids, entry.SkuID)
		friendly := skuMap[strings.ToLower(entry.SkuID)]
		if friendly == "" {
			friendly = entry.SkuID
		}
		key := strings.ToLower(friendly)
		if !seen[key] {
			seen[key] = true
			labels = append(labels, friendly)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		return strings.ToLower(labels[i]) < strings.ToLower(labels[j])
	})
	return ids, labels
}

func joinAddress(user graphUser) string {
	var parts []string
	for _, part := range []string{user.StreetAddress, user.City, user.State, user.PostalCode, user.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// FetchSubscribedSKUMap maps lowercase SKU ids to their part numbers for
// friendly license labels.
func (c *Client) FetchSubscribedSKUMap(ctx context.Context) (map[string]string, error) {
	type sku struct {
		SkuID         string `json:"skuId"`
		SkuPartNumber string `json:"skuPartNumber"`
	}
	type skuPage struct {
		Value    []sku  `json:"value"`
		NextLink string `json:"@odata.nextLink"`
	}

	skuMap := map[string]string{}
	url := c.cfg.Endpoint + "/subscribedSkus?$select=skuId,skuPartNumber"
	for url != "" {
		var page skuPage
		if err := c.getJSON(ctx, url, false, &page); err != nil {
			return skuMap, fmt.Errorf("fetch subscribed SKUs: %w", err)
		}
		for _, entry := range page.Value {
			if entry.SkuID == "" {
				continue
			}
			name := entry.SkuPartNumber
			if name == "" {
				name = entry.SkuID
			}
			skuMap[strings.ToLower(entry.SkuID)] = name
		}
		url = page.NextLink
	}
	return skuMap, nil
}

// FetchEmployeePhoto downloads a user's profile photo. A nil slice with nil
// error means the user has no photo.
func (c *Client) FetchEmployeePhoto(ctx context.Context, userID string) ([]byte, string, error) {
	url := fmt.Sprintf("%s/users/%s/photo/$value", c.cfg.Endpoint, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build photo request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read photo body: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

// enrichEmployeeMailboxes fills mailboxType/isSharedMailbox on records that
// lack it by querying beta mailboxSettings. maxLookups bounds the number of
// per-user calls; zero or negative means unbounded.
func (c *Client) enrichEmployeeMailboxes(ctx context.Context, records []*models.Employee, maxLookups int) {
	byID := make(map[string][]*models.Employee)
	order := []string{}
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		if _, ok := byID[record.ID]; !ok {
			order = append(order, record.ID)
		}
		byID[record.ID] = append(byID[record.ID], record)
	}

	lookups := 0
	for _, id := range order {
		group := byID[id]
		if hasMailboxType(group) {
			continue
		}
		if maxLookups > 0 && lookups >= maxLookups {
			break
		}
		purpose, stop := c.lookupUserPurpose(ctx, id)
		if stop {
			break
		}
		if purpose == "" {
			continue
		}
		shared := strings.HasPrefix(strings.ToLower(purpose), "shared")
		for _, record := range group {
			p := purpose
			s := shared
			record.MailboxType = &p
			record.IsSharedMailbox = &s
		}
		lookups++
	}
	if lookups > 0 {
		c.log.Info("enriched mailbox metadata", zap.Int("users", lookups))
	}
}

func hasMailboxType(group []*models.Employee) bool {
	for _, record := range group {
		if record.MailboxType != nil && strings.TrimSpace(*record.MailboxType) != "" {
			return true
		}
	}
	return false
}

// lookupUserPurpose returns the mailbox userPurpose for one user. stop is
// true when enrichment should be abandoned entirely (permission denied).
func (c *Client) lookupUserPurpose(ctx context.Context, userID string) (purpose string, stop bool) {
	url := fmt.Sprintf("%s/users/%s/mailboxSettings?$select=userPurpose", c.cfg.BetaEndpoint, userID)
	var payload struct {
		UserPurpose string `json:"userPurpose"`
	}
	err := c.getJSON(ctx, url, true, &payload)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) {
			switch status.StatusCode() {
			case http.StatusUnauthorized, http.StatusForbidden:
				c.log.Info("skipping mailbox enrichment, permission denied",
					zap.Int("status", status.StatusCode()))
				return "", true
			case http.StatusNotFound:
				return "", false
			}
		}
		c.log.Debug("mailbox settings lookup failed",
			zap.String("user_id", userID), zap.Error(err))
		return "", false
	}
	return strings.TrimSpace(payload.UserPurpose), false
}

// copyMailboxMetadata propagates enrichment results from the full filtered
// list onto the licensed subset, which holds separate copies.
func copyMailboxMetadata(source, dest []*models.Employee) {
	lookup := make(map[string]*models.Employee, len(source))
	for _, record := range source {
		if record.ID != "" {
			lookup[record.ID] = record
		}
	}
	for _, record := range dest {
		src, ok := lookup[record.ID]
		if !ok {
			continue
		}
		record.MailboxType = src.MailboxType
		record.IsSharedMailbox = src.IsSharedMailbox
	}
}
