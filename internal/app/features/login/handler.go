// internal/app/features/login/handler.go
//
// Package login implements the single shared admin credential. There is no
// user database: one bcrypt-hashed password guards every admin endpoint, and
// a successful check marks the session authenticated.
package login

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/ratelimit"
)

// adminUsername is the only account; the session stores it for display.
const adminUsername = "admin"

// Handler holds dependencies for the login endpoint.
type Handler struct {
	PasswordHash string
	Limiter      *ratelimit.LoginLimiter
	Log          *zap.Logger
}

// NewHandler constructs a login Handler. passwordHash is the bcrypt hash of
// the shared admin password; an empty hash disables login entirely.
func NewHandler(passwordHash string, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{PasswordHash: passwordHash, Limiter: limiter, Log: logger}
}

// HandleLoginPost handles POST /login. The password arrives as JSON
// ({"password":"…"}) or a form field; both are accepted so the endpoint
// works from the SPA and from plain HTML forms.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if allowed, retryMsg := h.Limiter.Check(r); !allowed {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": retryMsg})
		return
	}

	password := extractPassword(r)
	if password == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Password is required"})
		return
	}

	if h.PasswordHash == "" {
		h.Log.Error("login attempted but no admin password is configured")
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "Login is disabled"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(password)); err != nil {
		h.Log.Info("failed login attempt", zap.String("ip", ratelimit.ClientIP(r)))
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		return
	}

	if err := auth.SignIn(w, r, adminUsername); err != nil {
		h.Log.Error("failed to establish session", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError,
			map[string]string{"error": "Failed to establish session"})
		return
	}
	h.Limiter.ResetIP(r)

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": adminUsername,
		"return":   auth.SanitizeReturnPath(r.URL.Query().Get("return")),
	})
}

// extractPassword reads the password from a JSON body or a form field.
func extractPassword(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return body.Password
	}
	return r.PostFormValue("password")
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
