package mailer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/orgchart/internal/app/system/mailer"
)

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a@corp.test", []string{"a@corp.test"}},
		{"a@corp.test, b@corp.test", []string{"a@corp.test", "b@corp.test"}},
		{" a@corp.test ,, ", []string{"a@corp.test"}},
		{"not-an-address, @corp.test, a@", nil},
		{"a@nodot", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := mailer.ParseRecipients(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("ParseRecipients(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseRecipients(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestConfigured(t *testing.T) {
	cfg := mailer.Config{
		Server: "smtp.corp.test", Port: 587,
		Username: "u", Password: "p", FromAddress: "chart@corp.test",
	}
	if !cfg.Configured() {
		t.Error("complete config reported unconfigured")
	}
	cfg.Password = ""
	if cfg.Configured() {
		t.Error("config without password reported configured")
	}
}

func TestSendFailsUnconfigured(t *testing.T) {
	m := mailer.New(mailer.Config{}, nil)
	err := m.Send(mailer.Email{To: []string{"a@corp.test"}, Subject: "x", TextBody: "y"})
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("err = %v, want not-configured error", err)
	}
}

func TestBuildTestEmail(t *testing.T) {
	email := mailer.BuildTestEmail(mailer.TestEmailData{
		ChartTitle:  "DB Auto Org Chart",
		Server:      "smtp.corp.test",
		Port:        587,
		FromAddress: "chart@corp.test",
		SentAt:      time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
	})

	if email.Subject != "DB Auto Org Chart - Test Email" {
		t.Errorf("subject = %q", email.Subject)
	}
	for _, want := range []string{"smtp.corp.test:587", "chart@corp.test", "2026-08-25"} {
		if !strings.Contains(email.HTMLBody, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
	if !strings.Contains(email.TextBody, "working correctly") {
		t.Errorf("text body = %q", email.TextBody)
	}
}

func TestBuildReportEmail(t *testing.T) {
	email := mailer.BuildReportEmail(mailer.ReportEmailData{
		ChartTitle:          "DB Auto Org Chart",
		EmployeeCount:       120,
		MissingManagerCount: 4,
		GeneratedAt:         time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC),
		BaseURL:             "https://chart.corp.test",
	})

	if email.Subject != "DB Auto Org Chart - Report 2026-08-25" {
		t.Errorf("subject = %q", email.Subject)
	}
	for _, want := range []string{"120", "Missing managers:</strong> 4", "https://chart.corp.test"} {
		if !strings.Contains(email.HTMLBody, want) {
			t.Errorf("HTML body missing %q:\n%s", want, email.HTMLBody)
		}
	}
}

func TestBuildReportEmailDefaultTitle(t *testing.T) {
	email := mailer.BuildReportEmail(mailer.ReportEmailData{
		GeneratedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	if !strings.HasPrefix(email.Subject, "Organization Chart - Report") {
		t.Errorf("subject = %q", email.Subject)
	}
}
