package settingsapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/features/settingsapi"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/mailer"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

type stubStore struct {
	settings models.OrgSettings
	saved    *models.OrgSettings
	resets   int
}

func (s *stubStore) Get(context.Context) (models.OrgSettings, error) { return s.settings, nil }

func (s *stubStore) Save(_ context.Context, settings models.OrgSettings) error {
	s.saved = &settings
	s.settings = settings
	return nil
}

func (s *stubStore) Reset(context.Context) error {
	s.resets++
	s.settings = models.DefaultOrgSettings()
	return nil
}

type stubScheduler struct{ restarts int }

func (s *stubScheduler) Restart() { s.restarts++ }

type stubSender struct {
	sent []mailer.Email
	err  error
}

func (s *stubSender) Send(email mailer.Email) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

func smtpConfig() mailer.Config {
	return mailer.Config{Server: "smtp.corp.test", Port: 587,
		Username: "u", Password: "p", FromAddress: "chart@corp.test"}
}

func newEnv(t *testing.T, cfg mailer.Config) (chi.Router, *stubStore, *stubScheduler, *stubSender) {
	t.Helper()
	store := &stubStore{settings: models.DefaultOrgSettings()}
	scheduler := &stubScheduler{}
	sender := &stubSender{}
	h := settingsapi.NewHandler(store, scheduler, sender, cfg, zap.NewNop())
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, store, scheduler, sender
}

func adminPost(router chi.Router, target, body string) *httptest.ResponseRecorder {
	req := auth.WithTestUser(httptest.NewRequest("POST", target, strings.NewReader(body)), "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetSettingsIsPublic(t *testing.T) {
	router, _, _, _ := newEnv(t, mailer.Config{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var settings models.OrgSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if settings.ChartTitle != models.DefaultChartTitle {
		t.Errorf("chartTitle = %q", settings.ChartTitle)
	}
}

func TestSaveSettingsRequiresAdmin(t *testing.T) {
	router, store, _, _ := newEnv(t, mailer.Config{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/settings",
		strings.NewReader(`{"chartTitle":"Hacked"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if store.saved != nil {
		t.Error("unauthenticated request must not save settings")
	}
}

func TestSaveSettingsMergesPartialBody(t *testing.T) {
	router, store, scheduler, _ := newEnv(t, mailer.Config{})

	rec := adminPost(router, "/api/settings", `{"chartTitle":"Acme Org"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.saved == nil {
		t.Fatal("settings not saved")
	}
	if store.saved.ChartTitle != "Acme Org" {
		t.Errorf("chartTitle = %q", store.saved.ChartTitle)
	}
	// Untouched fields keep their saved values.
	if store.saved.UpdateTime != "20:00" || !store.saved.AutoUpdateEnabled {
		t.Errorf("schedule fields changed: %+v", store.saved)
	}
	if scheduler.restarts != 0 {
		t.Errorf("restarts = %d, want 0 for a non-schedule change", scheduler.restarts)
	}
}

func TestSaveSettingsRestartsSchedulerOnScheduleChange(t *testing.T) {
	router, store, scheduler, _ := newEnv(t, mailer.Config{})

	rec := adminPost(router, "/api/settings", `{"updateTime":"06:30"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.saved.UpdateTime != "06:30" {
		t.Errorf("updateTime = %q", store.saved.UpdateTime)
	}
	if scheduler.restarts != 1 {
		t.Errorf("restarts = %d, want 1", scheduler.restarts)
	}

	adminPost(router, "/api/settings", `{"autoUpdateEnabled":false}`)
	if scheduler.restarts != 2 {
		t.Errorf("restarts after disabling auto update = %d, want 2", scheduler.restarts)
	}
}

func TestResetAll(t *testing.T) {
	router, store, scheduler, _ := newEnv(t, mailer.Config{})
	store.settings.ChartTitle = "Customized"

	rec := adminPost(router, "/api/reset-all-settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if store.resets != 1 {
		t.Errorf("resets = %d, want 1", store.resets)
	}
	if scheduler.restarts != 1 {
		t.Errorf("restarts = %d, want 1", scheduler.restarts)
	}
}

func TestSendTestEmail(t *testing.T) {
	router, _, _, sender := newEnv(t, smtpConfig())

	rec := adminPost(router, "/api/send-test-email",
		`{"recipients":"it@corp.test, ops@corp.test"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d emails", len(sender.sent))
	}
	email := sender.sent[0]
	if len(email.To) != 2 || email.To[0] != "it@corp.test" {
		t.Errorf("recipients = %v", email.To)
	}
	if !strings.HasSuffix(email.Subject, "Test Email") {
		t.Errorf("subject = %q", email.Subject)
	}
}

func TestSendTestEmailUnconfigured(t *testing.T) {
	router, _, _, sender := newEnv(t, mailer.Config{})

	rec := adminPost(router, "/api/send-test-email", `{"recipients":"it@corp.test"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(sender.sent) != 0 {
		t.Error("no email should be sent without SMTP config")
	}
}

func TestSendTestEmailRejectsBadRecipients(t *testing.T) {
	router, _, _, _ := newEnv(t, smtpConfig())

	rec := adminPost(router, "/api/send-test-email", `{"recipients":"not-an-address"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
