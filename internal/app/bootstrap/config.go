// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the org chart service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, azure_tenant_id, etc.
//   - Environment variables: ORGCHART_MONGO_URI, ORGCHART_AZURE_TENANT_ID, etc.
//   - Command-line flags: --mongo_uri, --azure_tenant_id, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "orgchart", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Admin login
	{Name: "admin_password_hash", Default: "", Desc: "bcrypt hash of the admin password (blank disables login)"},

	// Azure app registration for the Microsoft Graph directory sync
	{Name: "azure_tenant_id", Default: "", Desc: "Azure AD tenant ID"},
	{Name: "azure_client_id", Default: "", Desc: "Azure app registration client ID"},
	{Name: "azure_client_secret", Default: "", Desc: "Azure app registration client secret"},
	{Name: "graph_endpoint", Default: "", Desc: "Graph v1.0 endpoint override (blank means public cloud)"},
	{Name: "graph_beta_endpoint", Default: "", Desc: "Graph beta endpoint override (blank means public cloud)"},

	// Startup refresh behavior
	{Name: "run_initial_update", Default: "auto", Desc: "Startup refresh: 'true' always, 'auto' when cache empty, 'false' never"},

	// Email/SMTP configuration
	{Name: "mail_server", Default: "", Desc: "SMTP server host"},
	{Name: "mail_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_username", Default: "", Desc: "SMTP username"},
	{Name: "mail_password", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "", Desc: "From email address"},
	{Name: "mail_encryption", Default: "starttls", Desc: "SMTP encryption: 'starttls', 'tls', or 'none'"},

	// Base URL for links in outgoing email
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for email links"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ORGCHART_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ORGCHART", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionDomain:    appValues.String("session_domain"),

		AdminPasswordHash: appValues.String("admin_password_hash"),

		AzureTenantID:     appValues.String("azure_tenant_id"),
		AzureClientID:     appValues.String("azure_client_id"),
		AzureClientSecret: appValues.String("azure_client_secret"),
		GraphEndpoint:     appValues.String("graph_endpoint"),
		GraphBetaEndpoint: appValues.String("graph_beta_endpoint"),

		RunInitialUpdate: appValues.String("run_initial_update"),

		MailServer:     appValues.String("mail_server"),
		MailPort:       appValues.Int("mail_port"),
		MailUsername:   appValues.String("mail_username"),
		MailPassword:   appValues.String("mail_password"),
		MailFrom:       appValues.String("mail_from"),
		MailEncryption: appValues.String("mail_encryption"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format and the Azure app registration are checked here
// so misconfiguration fails fast instead of surfacing as the first failed
// directory sync.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.AzureTenantID == "" || appCfg.AzureClientID == "" || appCfg.AzureClientSecret == "" {
		return fmt.Errorf("azure_tenant_id, azure_client_id, and azure_client_secret are required for the directory sync")
	}

	if appCfg.AdminPasswordHash == "" {
		logger.Warn("admin_password_hash is not set; admin login is disabled")
	}

	return nil
}
