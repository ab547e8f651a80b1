// internal/app/system/exports/microsip.go
//
// Package exports renders the cached org data into external formats: XLSX
// workbooks for the admin reports and a MicroSIP contacts directory.
package exports

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

// DirectoryItem is one MicroSIP phonebook entry. Field names mirror the
// attributes MicroSIP reads from its Contacts.xml.
type DirectoryItem struct {
	XMLName   xml.Name `xml:"item"`
	Number    string   `xml:"number,attr"`
	Name      string   `xml:"name,attr"`
	FirstName string   `xml:"firstname,attr"`
	LastName  string   `xml:"lastname,attr"`
	Phone     string   `xml:"phone,attr"`
	Mobile    string   `xml:"mobile,attr"`
	Email     string   `xml:"email,attr"`
	Address   string   `xml:"address,attr"`
	City      string   `xml:"city,attr"`
	State     string   `xml:"state,attr"`
	Zip       string   `xml:"zip,attr"`
	Comment   string   `xml:"comment,attr"`
	Presence  int      `xml:"presence,attr"`
	Starred   int      `xml:"starred,attr"`
	Info      string   `xml:"info,attr"`
}

type directoryDoc struct {
	XMLName xml.Name        `xml:"items"`
	Items   []DirectoryItem `xml:"item"`
}

// BuildDirectoryItems turns the employee snapshot plus the admin's custom
// contact lines into dial-ready directory entries. Employees without any
// phone digits are skipped; duplicate or missing numbers get a generated
// three-digit extension.
func BuildDirectoryItems(employees []*models.Employee, settings models.OrgSettings) []DirectoryItem {
	items := make([]DirectoryItem, 0, len(employees))
	used := make(map[string]bool)
	fallbackCounter := 1

	nextGenerated := func() string {
		for {
			candidate := fmt.Sprintf("%03d", fallbackCounter)
			fallbackCounter++
			if !used[candidate] {
				return candidate
			}
		}
	}

	sorted := make([]*models.Employee, len(employees))
	copy(sorted, employees)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	for _, emp := range sorted {
		businessPhone := strings.TrimSpace(emp.BusinessPhone)
		mobilePhone := strings.TrimSpace(emp.Phone)

		sanitizedBusiness := digitsOnly(businessPhone)
		sanitizedMobile := digitsOnly(mobilePhone)
		if sanitizedBusiness == "" && sanitizedMobile == "" {
			continue
		}

		number := sanitizedBusiness
		if number == "" {
			number = sanitizedMobile
		}
		if number == "" || used[number] {
			number = nextGenerated()
		}
		used[number] = true

		fullName := strings.TrimSpace(emp.Name)
		first, last := splitNameParts(fullName)
		email := strings.TrimSpace(emp.Email)
		if email == "" {
			email = strings.TrimSpace(emp.UserPrincipalName)
		}

		var commentParts []string
		if emp.Title != "" {
			commentParts = append(commentParts, emp.Title)
		}
		if emp.Department != "" {
			commentParts = append(commentParts, emp.Department)
		}

		displayName := fullName
		if displayName == "" {
			displayName = email
		}
		if displayName == "" {
			displayName = number
		}

		address := emp.FullAddress
		if address == "" {
			address = emp.OfficeLocation
		}

		items = append(items, DirectoryItem{
			Number:    number,
			Name:      displayName,
			FirstName: first,
			LastName:  last,
			Phone:     businessPhone,
			Mobile:    mobilePhone,
			Email:     email,
			Address:   address,
			City:      emp.City,
			State:     emp.State,
			Comment:   strings.Join(commentParts, " - "),
			Info:      emp.UserPrincipalName,
		})
	}

	customNumbers := make(map[string]bool)
	for _, contact := range parseCustomContacts(settings.CustomDirectoryContacts) {
		number := contact.sanitized
		if number != "" {
			if customNumbers[number] {
				number = ""
			} else {
				customNumbers[number] = true
			}
		}
		// A custom contact may deliberately reuse an employee extension; only
		// collisions between custom entries force a generated number.
		if number == "" {
			number = nextGenerated()
		}
		used[number] = true

		fullName := strings.TrimSpace(contact.name)
		first, last := splitNameParts(fullName)

		displayName := fullName
		if displayName == "" {
			displayName = contact.rawNumber
		}
		if displayName == "" {
			displayName = number
		}

		items = append(items, DirectoryItem{
			Number:    number,
			Name:      displayName,
			FirstName: first,
			LastName:  last,
			Phone:     contact.rawNumber,
		})
	}

	return items
}

// WriteMicroSIPXML renders the directory as a MicroSIP contacts document.
func WriteMicroSIPXML(w io.Writer, items []DirectoryItem) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(directoryDoc{Items: items}); err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	return enc.Flush()
}

type customContact struct {
	name      string
	rawNumber string
	sanitized string
}

// parseCustomContacts reads the admin's "Name, number" lines. Blank lines and
// #-comments are skipped, as are lines without a comma or without digits.
func parseCustomContacts(raw string) []customContact {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var contacts []customContact
	for _, line := range strings.Split(raw, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}
		name, rawNumber, found := strings.Cut(stripped, ",")
		if !found {
			continue
		}
		rawNumber = strings.TrimSpace(rawNumber)
		sanitized := digitsOnly(rawNumber)
		if sanitized == "" {
			continue
		}
		contacts = append(contacts, customContact{
			name:      strings.TrimSpace(name),
			rawNumber: rawNumber,
			sanitized: sanitized,
		})
	}
	return contacts
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitNameParts splits a display name into first/last the way softphone
// directories expect: everything before the final word is the first name.
func splitNameParts(displayName string) (first, last string) {
	parts := strings.Fields(displayName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
