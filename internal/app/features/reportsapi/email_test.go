package reportsapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/features/reportsapi"
	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/mailer"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

type stubSender struct{ sent []mailer.Email }

func (s *stubSender) Send(email mailer.Email) error {
	s.sent = append(s.sent, email)
	return nil
}

func newMailEnv(t *testing.T, sender *stubSender) (chi.Router, *reportcache.MemoryStore) {
	t.Helper()
	store := reportcache.NewMemory()
	h := reportsapi.NewHandler(
		reportcache.NewManager(store, nil, zap.NewNop()),
		&stubSettings{settings: models.DefaultOrgSettings()},
		&stubStatus{status: models.UpdateStatus{State: models.UpdateStateIdle, LastSuccessAt: &lastSuccess}},
		zap.NewNop(),
	)
	if sender != nil {
		h.Mail = sender
		h.MailCfg = mailer.Config{
			Server: "smtp.example.com", Port: 587,
			Username: "reports", Password: "secret",
			FromAddress: "chart@example.com",
		}
		h.BaseURL = "https://chart.example.com"
	}
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, store
}

func postEmailReport(router chi.Router, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/email-report", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = auth.WithTestUser(req, "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEmailReportSendsSummaryWithAttachment(t *testing.T) {
	sender := &stubSender{}
	router, store := newMailEnv(t, sender)

	seed(t, store, reportcache.KeyEmployees, []*models.Employee{
		{ID: "u1", Name: "Ada Root"},
		{ID: "u2", Name: "Ben Lee"},
		{ID: "u3", Name: "Cal Wu"},
	})
	seed(t, store, reportcache.KeyMissingManager, missingFixtures()[:1])

	rec := postEmailReport(router, `{"recipients":"a@example.com, b@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}

	email := sender.sent[0]
	if len(email.To) != 2 {
		t.Errorf("recipients = %v, want 2", email.To)
	}
	if !strings.Contains(email.Subject, "Report") {
		t.Errorf("subject = %q", email.Subject)
	}
	if !strings.Contains(email.TextBody, "Employees: 3") ||
		!strings.Contains(email.TextBody, "Missing managers: 1") {
		t.Errorf("body = %q", email.TextBody)
	}
	if len(email.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(email.Attachments))
	}
	if got, want := email.Attachments[0].Filename, "missing-managers-2026-08-25.xlsx"; got != want {
		t.Errorf("attachment name = %q, want %q", got, want)
	}
}

func TestEmailReportUnconfigured(t *testing.T) {
	router, _ := newMailEnv(t, nil)

	rec := postEmailReport(router, `{"recipients":"a@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEmailReportRequiresRecipients(t *testing.T) {
	router, _ := newMailEnv(t, &stubSender{})

	rec := postEmailReport(router, `{"recipients":"not-an-address"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEmailReportRequiresAdmin(t *testing.T) {
	router, _ := newMailEnv(t, &stubSender{})

	req := httptest.NewRequest("POST", "/api/email-report", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
