// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging level, CORS). AppConfig is everything specific to this service:
// the MongoDB backing store, the Azure app registration the directory sync
// authenticates with, the session cookie secrets, and the SMTP relay used
// for test emails and report deliveries.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max driver connection pool size
	MongoMinPoolSize uint64 // Min driver connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Admin login: bcrypt hash of the single admin password. When blank,
	// login is disabled and the admin surface is unreachable.
	AdminPasswordHash string

	// Azure app registration used for the Microsoft Graph directory sync.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// Graph endpoint overrides for sovereign clouds; blank means the
	// public cloud defaults.
	GraphEndpoint     string
	GraphBetaEndpoint string

	// RunInitialUpdate controls the refresh triggered at startup:
	// "true" always runs one, "auto" runs one only when the cache is
	// empty, anything else skips it.
	RunInitialUpdate string

	// Email/SMTP configuration for test emails and report deliveries.
	MailServer     string
	MailPort       int
	MailUsername   string
	MailPassword   string
	MailFrom       string
	MailEncryption string // "starttls" (default), "tls", or "none"

	// Base URL for links in outgoing email (e.g., "https://chart.example.com")
	BaseURL string
}
