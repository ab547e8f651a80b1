package update_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/features/update"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/domain/models"
)

type stubStatus struct{ status models.UpdateStatus }

func (s *stubStatus) Get(context.Context) (models.UpdateStatus, error) { return s.status, nil }

func newRouter(run update.RunFunc, status *stubStatus) chi.Router {
	h := update.NewHandler(run, status, zap.NewNop())
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestUpdateNowStartsRunInBackground(t *testing.T) {
	started := make(chan string, 1)
	router := newRouter(func(_ context.Context, source string) error {
		started <- source
		return nil
	}, &stubStatus{})

	req := auth.WithTestUser(httptest.NewRequest("POST", "/api/update-now", nil), "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Update started" {
		t.Errorf("message = %q", resp.Message)
	}

	select {
	case source := <-started:
		if source != "manual" {
			t.Errorf("source = %q, want manual", source)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was never started")
	}
}

func TestUpdateNowRequiresAdmin(t *testing.T) {
	router := newRouter(func(context.Context, string) error {
		t.Error("refresh must not start for unauthenticated callers")
		return nil
	}, &stubStatus{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/update-now", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	startedAt := time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC)
	router := newRouter(func(context.Context, string) error { return nil },
		&stubStatus{status: models.UpdateStatus{
			State: models.UpdateStateRunning, Source: "manual", StartedAt: &startedAt,
		}})

	req := auth.WithTestUser(httptest.NewRequest("GET", "/api/update-status", nil), "admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status models.UpdateStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Running() || status.Source != "manual" {
		t.Errorf("status = %+v", status)
	}
}
