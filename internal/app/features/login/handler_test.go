package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dalemusser/orgchart/internal/app/features/login"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/ratelimit"
)

func passwordHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func newRouter(t *testing.T, hash string, limiter *ratelimit.LoginLimiter) chi.Router {
	t.Helper()
	if err := auth.InitSessionStore("0123456789abcdef0123456789abcdef", "", false, zap.NewNop()); err != nil {
		t.Fatalf("init session store: %v", err)
	}
	h := login.NewHandler(hash, limiter, zap.NewNop())
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func postJSON(router chi.Router, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	router := newRouter(t, passwordHash(t, "correct horse"), nil)

	rec := postJSON(router, `{"password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("body = %q", rec.Body.String())
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newRouter(t, passwordHash(t, "correct horse"), nil)

	rec := postJSON(router, `{"password":"battery staple"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid password") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLoginFormBody(t *testing.T) {
	router := newRouter(t, passwordHash(t, "correct horse"), nil)

	form := url.Values{"password": {"correct horse"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginMissingPassword(t *testing.T) {
	router := newRouter(t, passwordHash(t, "correct horse"), nil)

	rec := postJSON(router, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	router := newRouter(t, "", nil)

	rec := postJSON(router, `{"password":"anything"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiterWithConfig(2, time.Minute)
	router := newRouter(t, passwordHash(t, "correct horse"), limiter)

	postJSON(router, `{"password":"wrong"}`)
	postJSON(router, `{"password":"wrong"}`)
	rec := postJSON(router, `{"password":"correct horse"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestLoginResetsLimiterOnSuccess(t *testing.T) {
	limiter := ratelimit.NewLoginLimiterWithConfig(2, time.Minute)
	router := newRouter(t, passwordHash(t, "correct horse"), limiter)

	postJSON(router, `{"password":"wrong"}`)
	if rec := postJSON(router, `{"password":"correct horse"}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	// The successful login cleared the window; two fresh attempts fit again.
	postJSON(router, `{"password":"wrong"}`)
	if rec := postJSON(router, `{"password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 (limit reset after success)", rec.Code)
	}
}
