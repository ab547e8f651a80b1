package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants & globals                                                |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	SessionName = "orgchart-session"

	isAuthKey   = "is_authenticated"
	usernameKey = "username"

	// Session-scoped top-user override for the chart view. Presence of the
	// key matters: an empty stored value means "auto-detect", absence means
	// "use the saved settings".
	topUserKey    = "top_user_email"
	topUserSetKey = "top_user_set"
)

// Store is initialised once via InitSessionStore.
var Store *sessions.CookieStore

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
type SessionUser struct {
	Name string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in admin & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the admin into context if they are logged in.
// If the session store has not been initialized yet, it is a no-op.
func LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Store == nil {
			next.ServeHTTP(w, r)
			return
		}

		sess, _ := Store.Get(r, SessionName)
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{Name: getString(sess, usernameKey)}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures there is a signed-in admin in context (set by
// LoadSessionUser). Browser requests are redirected to /login with a return
// param; API callers get a JSON 401.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		if wantsHTML(r) {
			ret := url.QueryEscape(currentURI(r))
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
	})
}

// SignIn marks the session authenticated.
func SignIn(w http.ResponseWriter, r *http.Request, username string) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[usernameKey] = username
	return sess.Save(r, w)
}

// SignOut clears the whole session, including any top-user override.
func SignOut(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Top-user override                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// TopUserOverride reads the session-scoped root override. set is false when
// no override has been stored; an empty email with set=true means the viewer
// asked for auto-detection.
func TopUserOverride(r *http.Request) (email string, set bool) {
	if Store == nil {
		return "", false
	}
	sess, _ := Store.Get(r, SessionName)
	if stored, _ := sess.Values[topUserSetKey].(bool); !stored {
		return "", false
	}
	return strings.TrimSpace(getString(sess, topUserKey)), true
}

// SetTopUserOverride stores a root override for this session only.
func SetTopUserOverride(w http.ResponseWriter, r *http.Request, email string) error {
	if Store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, _ := Store.Get(r, SessionName)
	sess.Values[topUserKey] = strings.TrimSpace(email)
	sess.Values[topUserSetKey] = true
	return sess.Save(r, w)
}

// ClearTopUserOverride removes the session override entirely.
func ClearTopUserOverride(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, SessionName)
	delete(sess.Values, topUserKey)
	delete(sess.Values, topUserSetKey)
	return sess.Save(r, w)
}

// InitSessionStore initializes the global session Store using the provided
// session key and domain. The `secure` flag controls whether cookies are
// marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies should be Secure + SameSite=None
// (for cross-site use with HTTPS).
// In local dev over http://localhost, use secure=false so cookies are accepted.
func InitSessionStore(sessionKey, domain string, secure bool, logger *zap.Logger) error {
	if sessionKey == "" {
		return fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}

	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}

	store.Options = opts
	Store = store

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return nil
}

// SanitizeReturnPath keeps login redirects on-site: only a rooted path with
// no scheme/host smuggling is accepted, anything else falls back to "/".
func SanitizeReturnPath(value string) string {
	candidate := strings.TrimSpace(value)
	if candidate == "" || !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	if strings.ContainsAny(candidate, "\\\r\n") {
		return "/"
	}
	if parsed, err := url.Parse(candidate); err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "/"
	}
	return candidate
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}

// WithTestUser injects a signed-in admin into the request context without a
// session cookie; for handler tests only.
func WithTestUser(r *http.Request, name string) *http.Request {
	return withUser(r, &SessionUser{Name: name})
}
