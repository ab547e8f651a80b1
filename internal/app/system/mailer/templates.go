// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// TestEmailData holds data for the SMTP configuration test email.
type TestEmailData struct {
	ChartTitle  string
	Server      string
	Port        int
	FromAddress string
	SentAt      time.Time
}

// BuildTestEmail creates the "is SMTP working" message sent from the
// configuration page.
func BuildTestEmail(data TestEmailData) Email {
	if data.ChartTitle == "" {
		data.ChartTitle = "Organization Chart"
	}
	return Email{
		Subject: fmt.Sprintf("%s - Test Email", data.ChartTitle),
		TextBody: fmt.Sprintf(
			"This is a test email from your %s application.\n"+
				"If you receive this email, your SMTP configuration is working correctly!\n\n"+
				"SMTP Server: %s:%d\nFrom Address: %s\nDate: %s\n",
			data.ChartTitle, data.Server, data.Port, data.FromAddress,
			data.SentAt.UTC().Format("2006-01-02 15:04 MST")),
		HTMLBody: renderTemplate(testHTMLTemplate, data),
	}
}

// ReportEmailData holds data for the scheduled report email.
type ReportEmailData struct {
	ChartTitle          string
	EmployeeCount       int
	MissingManagerCount int
	GeneratedAt         time.Time
	BaseURL             string
}

// BuildReportEmail creates the periodic report summary message; spreadsheet
// attachments are added by the caller.
func BuildReportEmail(data ReportEmailData) Email {
	if data.ChartTitle == "" {
		data.ChartTitle = "Organization Chart"
	}
	return Email{
		Subject: fmt.Sprintf("%s - Report %s", data.ChartTitle,
			data.GeneratedAt.UTC().Format("2006-01-02")),
		TextBody: fmt.Sprintf(
			"%s report generated %s.\n\nEmployees: %d\nMissing managers: %d\n",
			data.ChartTitle, data.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"),
			data.EmployeeCount, data.MissingManagerCount),
		HTMLBody: renderTemplate(reportHTMLTemplate, data),
	}
}

func renderTemplate(text string, data any) string {
	tmpl := template.Must(template.New("email").Parse(text))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const testHTMLTemplate = `<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif;">
  <h2>{{.ChartTitle}} Email Reports - Test Email</h2>
  <p>This is a test email from your {{.ChartTitle}} application.</p>
  <p>If you receive this email, your SMTP configuration is working correctly!</p>
  <p><strong>SMTP Server:</strong> {{.Server}}:{{.Port}}</p>
  <p><strong>From Address:</strong> {{.FromAddress}}</p>
  <p><strong>Date:</strong> {{.SentAt.UTC.Format "2006-01-02 15:04 MST"}}</p>
</body>
</html>
`

const reportHTMLTemplate = `<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif;">
  <h2>{{.ChartTitle}} Report</h2>
  <p>Generated {{.GeneratedAt.UTC.Format "2006-01-02 15:04 MST"}}.</p>
  <ul>
    <li><strong>Employees:</strong> {{.EmployeeCount}}</li>
    <li><strong>Missing managers:</strong> {{.MissingManagerCount}}</li>
  </ul>
  {{if .BaseURL}}<p><a href="{{.BaseURL}}">Open the live chart</a></p>{{end}}
  <p>Attached reports reflect the latest completed data update.</p>
</body>
</html>
`
