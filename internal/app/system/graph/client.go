// internal/app/system/graph/client.go
//
// Package graph talks to Microsoft Graph with application (client
// credentials) permissions and maps directory users into the employee
// records the rest of the service works with. Requests go over plain REST:
// the sign-in activity and mailbox userPurpose fields only exist on the
// beta endpoint, and list calls need $select/$expand/$filter shaping the
// v1.0 SDK surface does not expose cleanly.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultEndpoint is the production v1.0 Graph base URL.
	DefaultEndpoint = "https://graph.microsoft.com/v1.0"
	// DefaultBetaEndpoint serves signInActivity and mailboxSettings.
	DefaultBetaEndpoint = "https://graph.microsoft.com/beta"

	maxThrottleRetries = 5
)

// Config carries the Azure app registration and endpoint settings.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// Endpoint / BetaEndpoint default to the public Graph URLs; overridable
	// for sovereign clouds and tests.
	Endpoint     string
	BetaEndpoint string
}

// Client is a Graph API client. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New builds a client whose transport obtains and refreshes application
// tokens via the client-credentials grant.
func New(ctx context.Context, cfg Config, logger *zap.Logger) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	return NewWithHTTPClient(cfg, cc.Client(ctx), logger)
}

// NewWithHTTPClient builds a client over a caller-supplied HTTP client;
// tests pass a plain client pointed at an httptest server.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.BetaEndpoint == "" {
		cfg.BetaEndpoint = DefaultBetaEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:   cfg,
		http:  httpClient,
		log:   logger,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// userPage is one page of a Graph users listing.
type userPage struct {
	Value    []graphUser `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// graphUser is the wire shape of a directory user with every field any of
// the list calls selects.
type graphUser struct {
	ID                    string   `json:"id"`
	DisplayName           string   `json:"displayName"`
	JobTitle              string   `json:"jobTitle"`
	Department            string   `json:"department"`
	Mail                  string   `json:"mail"`
	UserPrincipalName     string   `json:"userPrincipalName"`
	MobilePhone           string   `json:"mobilePhone"`
	BusinessPhones        []string `json:"businessPhones"`
	OfficeLocation        string   `json:"officeLocation"`
	City                  string   `json:"city"`
	State                 string   `json:"state"`
	Country               string   `json:"country"`
	UsageLocation         string   `json:"usageLocation"`
	StreetAddress         string   `json:"streetAddress"`
	PostalCode            string   `json:"postalCode"`
	EmployeeHireDate      string   `json:"employeeHireDate"`
	EmployeeLeaveDateTime string   `json:"employeeLeaveDateTime"`
	// AccountEnabled is a pointer so an absent field reads as enabled.
	AccountEnabled   *bool  `json:"accountEnabled"`
	UserType         string `json:"userType"`
	AssignedLicenses []struct {
		SkuID string `json:"skuId"`
	} `json:"assignedLicenses"`
	Manager *struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"manager"`
	SignInActivity *struct {
		LastSignInDateTime               string `json:"lastSignInDateTime"`
		LastInteractiveSignInDateTime    string `json:"lastInteractiveSignInDateTime"`
		LastNonInteractiveSignInDateTime string `json:"lastNonInteractiveSignInDateTime"`
	} `json:"signInActivity"`
	MailboxSettings *struct {
		UserPurpose string `json:"userPurpose"`
	} `json:"mailboxSettings"`
}

func (u *graphUser) enabled() bool {
	return u.AccountEnabled == nil || *u.AccountEnabled
}

func (u *graphUser) businessPhone() string {
	for _, phone := range u.BusinessPhones {
		if phone != "" {
			return phone
		}
	}
	return ""
}

// getJSON performs one GET and decodes the body. The caller owns retry and
// paging decisions; throttling (429) is surfaced as errThrottled with the
// Retry-After delay attached.
func (c *Client) getJSON(ctx context.Context, url string, consistency bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if consistency {
		req.Header.Set("ConsistencyLevel", "eventual")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return &throttledError{retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode graph response: %w", err)
	}
	return nil
}

// listUsers walks every page of url, retrying throttled pages after the
// server-advised delay.
func (c *Client) listUsers(ctx context.Context, url string, consistency bool, visit func(graphUser)) error {
	retries := 0
	for url != "" {
		var page userPage
		err := c.getJSON(ctx, url, consistency, &page)
		if err != nil {
			var throttled *throttledError
			if errors.As(err, &throttled) && retries < maxThrottleRetries {
				retries++
				c.log.Warn("graph throttled request, backing off",
					zap.Duration("retry_after", throttled.retryAfter),
					zap.Int("attempt", retries))
				c.sleep(throttled.retryAfter)
				continue
			}
			return err
		}
		retries = 0
		for _, user := range page.Value {
			visit(user)
		}
		url = page.NextLink
	}
	return nil
}

type throttledError struct {
	retryAfter time.Duration
}

func (e *throttledError) Error() string {
	return fmt.Sprintf("graph throttled, retry after %s", e.retryAfter)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("graph status %d: %s", e.code, e.body)
}

// StatusCode exposes the HTTP status for callers that branch on 401/403/404.
func (e *statusError) StatusCode() int { return e.code }

func parseRetryAfter(header string) time.Duration {
	delay := 5 * time.Second
	if header == "" {
		return delay
	}
	if secs, err := strconv.Atoi(header); err == nil && time.Duration(secs)*time.Second > delay {
		delay = time.Duration(secs) * time.Second
	}
	return delay
}
