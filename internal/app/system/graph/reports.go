// internal/app/system/graph/reports.go
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

const lastLoginSelectFields = "id,displayName,jobTitle,department,mail,userPrincipalName," +
	"signInActivity,accountEnabled,userType,assignedLicenses"

// CollectLastLoginRecords reads sign-in activity for every user from the
// beta endpoint (signInActivity is not on v1.0). Requires
// AuditLog.Read.All; throttled pages are retried after the advertised
// delay.
func (c *Client) CollectLastLoginRecords(ctx context.Context) ([]models.LastLoginRecord, error) {
	skuMap, err := c.FetchSubscribedSKUMap(ctx)
	if err != nil {
		c.log.Warn("failed to load subscribed SKUs", zap.Error(err))
		skuMap = map[string]string{}
	}

	url := fmt.Sprintf("%s/users?$select=%s&$top=999", c.cfg.BetaEndpoint, lastLoginSelectFields)
	now := c.now().UTC()
	records := []models.LastLoginRecord{}

	err = c.listUsers(ctx, url, true, func(user graphUser) {
		var combined, interactive, nonInteractive *time.Time
		if user.SignInActivity != nil {
			combined = ParseGraphTime(user.SignInActivity.LastSignInDateTime)
			interactive = ParseGraphTime(user.SignInActivity.LastInteractiveSignInDateTime)
			nonInteractive = ParseGraphTime(user.SignInActivity.LastNonInteractiveSignInDateTime)
		}

		var mostRecent *time.Time
		for _, observed := range []*time.Time{combined, interactive, nonInteractive} {
			if observed != nil && (mostRecent == nil || observed.After(*mostRecent)) {
				mostRecent = observed
			}
		}

		skuIDs, skuLabels := mapLicenses(user, skuMap)

		email := user.Mail
		if email == "" {
			email = user.UserPrincipalName
		}

		record := models.LastLoginRecord{
			ID:             user.ID,
			Name:           orDefault(user.DisplayName, "Unknown"),
			Title:          orDefault(user.JobTitle, "No Title"),
			Department:     orDefault(user.Department, "No Department"),
			Email:          email,
			AccountEnabled: user.enabled(),
			UserType:       strings.ToLower(user.UserType),
			LicenseCount:   len(skuIDs),
			LicenseSkus:    skuLabels,
			LicenseSkuIDs:  skuIDs,

			LastActivityDate:              FormatISO(mostRecent),
			DaysSinceLastActivity:         DaysSince(mostRecent, now),
			LastInteractiveSignIn:         FormatISO(interactive),
			DaysSinceInteractiveSignIn:    DaysSince(interactive, now),
			LastNonInteractiveSignIn:      FormatISO(nonInteractive),
			DaysSinceNonInteractiveSignIn: DaysSince(nonInteractive, now),
			NeverSignedIn:                 mostRecent == nil,
		}

		if user.MailboxSettings != nil {
			if purpose := strings.TrimSpace(user.MailboxSettings.UserPurpose); purpose != "" {
				shared := strings.HasPrefix(strings.ToLower(purpose), "shared")
				record.MailboxType = &purpose
				record.IsSharedMailbox = &shared
			}
		}

		records = append(records, record)
	})
	if err != nil {
		return nil, fmt.Errorf("collect sign-in activity: %w", err)
	}

	c.enrichLoginMailboxes(ctx, records, 200)
	c.log.Info("collected last sign-in records", zap.Int("count", len(records)))
	return records, nil
}

// enrichLoginMailboxes mirrors enrichEmployeeMailboxes for sign-in records.
func (c *Client) enrichLoginMailboxes(ctx context.Context, records []models.LastLoginRecord, maxLookups int) {
	lookups := 0
	for i := range records {
		record := &records[i]
		if record.ID == "" {
			continue
		}
		if record.MailboxType != nil && strings.TrimSpace(*record.MailboxType) != "" {
			continue
		}
		if maxLookups > 0 && lookups >= maxLookups {
			break
		}
		purpose, stop := c.lookupUserPurpose(ctx, record.ID)
		if stop {
			break
		}
		if purpose == "" {
			continue
		}
		shared := strings.HasPrefix(strings.ToLower(purpose), "shared")
		record.MailboxType = &purpose
		record.IsSharedMailbox = &shared
		lookups++
	}
	if lookups > 0 {
		c.log.Info("enriched mailbox metadata", zap.Int("users", lookups))
	}
}

const disabledSelectFields = "id,displayName,jobTitle,department,mail,userPrincipalName,mobilePhone," +
	"businessPhones,officeLocation,city,state,country,usageLocation,streetAddress," +
	"postalCode,employeeHireDate,employeeLeaveDateTime,accountEnabled,userType,assignedLicenses"

// CollectDisabledUsers lists accounts with accountEnabled false and merges
// the first-seen timestamps carried over from the previous report so that
// accounts without an employeeLeaveDateTime still age correctly.
func (c *Client) CollectDisabledUsers(ctx context.Context, previous []models.DisabledUserRecord) ([]models.DisabledUserRecord, error) {
	skuMap, err := c.FetchSubscribedSKUMap(ctx)
	if err != nil {
		c.log.Warn("failed to load subscribed SKUs", zap.Error(err))
		skuMap = map[string]string{}
	}

	url := fmt.Sprintf("%s/users?$select=%s&$filter=accountEnabled%%20eq%%20false",
		c.cfg.Endpoint, disabledSelectFields)

	records := []models.DisabledUserRecord{}
	err = c.listUsers(ctx, url, false, func(user graphUser) {
		skuIDs, skuLabels := mapLicenses(user, skuMap)

		email := user.Mail
		if email == "" {
			email = user.UserPrincipalName
		}
		disabledAt := ParseGraphTime(user.EmployeeLeaveDateTime)

		records = append(records, models.DisabledUserRecord{
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
			HireDate:          FormatISO(ParseGraphTime(user.EmployeeHireDate)),
			DisabledDate:      FormatISO(disabledAt),
			DisabledDays:      DaysSince(disabledAt, c.now()),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch disabled users: %w", err)
	}

	MergeFirstSeenDisabled(records, previous, c.now())
	c.log.Info("collected disabled users", zap.Int("count", len(records)))
	return records, nil
}

// MergeFirstSeenDisabled backfills firstSeenDisabledAt: the directory's
// leave date when present, else the timestamp carried over from the
// previous report, else now. disabledDate and disabledDays are recomputed
// from the resolved first-seen moment.
func MergeFirstSeenDisabled(records, previous []models.DisabledUserRecord, now time.Time) {
	prior := make(map[string]models.DisabledUserRecord, len(previous))
	for _, entry := range previous {
		if entry.ID != "" {
			prior[entry.ID] = entry
		}
	}
	nowISO := FormatISO(&now)

	for i := range records {
		record := &records[i]
		firstSeen := record.DisabledDate
		if firstSeen == "" {
			if existing, ok := prior[record.ID]; ok {
				firstSeen = existing.FirstSeenDisabledAt
				if firstSeen == "" {
					firstSeen = existing.DisabledDate
				}
			}
		}
		if firstSeen == "" {
			firstSeen = nowISO
		}
		record.FirstSeenDisabledAt = firstSeen
		if record.DisabledDate == "" {
			record.DisabledDate = firstSeen
		}
		record.DisabledDays = DaysSince(ParseGraphTime(firstSeen), now)
	}
}

// FilterLicensedDisabled keeps only disabled accounts still holding
// licenses.
func FilterLicensedDisabled(records []models.DisabledUserRecord) []models.DisabledUserRecord {
	licensed := []models.DisabledUserRecord{}
	for _, record := range records {
		if record.LicenseCount > 0 {
			licensed = append(licensed, record)
		}
	}
	return licensed
}
