// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chartfeature "github.com/dalemusser/orgchart/internal/app/features/chart"
	directoryfeature "github.com/dalemusser/orgchart/internal/app/features/directory"
	healthfeature "github.com/dalemusser/orgchart/internal/app/features/health"
	loginfeature "github.com/dalemusser/orgchart/internal/app/features/login"
	logoutfeature "github.com/dalemusser/orgchart/internal/app/features/logout"
	photofeature "github.com/dalemusser/orgchart/internal/app/features/photo"
	reportsapifeature "github.com/dalemusser/orgchart/internal/app/features/reportsapi"
	settingsapifeature "github.com/dalemusser/orgchart/internal/app/features/settingsapi"
	updatefeature "github.com/dalemusser/orgchart/internal/app/features/update"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed, so the shared services (Graph client,
// refresh pipeline, scheduler) are already running.
//
// The service is a JSON API: the org chart endpoints the browser client
// consumes, the admin report and settings endpoints, and the MicroSIP
// phone directory export.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context if
	// logged in, making auth.CurrentUser(r) work everywhere.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginfeature.NewHandler(appCfg.AdminPasswordHash, ratelimit.NewLoginLimiter(), logger).MountRoutes(r)
	logoutfeature.NewHandler(logger).MountRoutes(r)

	// Org chart data, search, and top-user overrides
	chartfeature.NewHandler(services.Reports, services.Settings, services.Graph, logger).MountRoutes(r)

	// Admin audit reports, XLSX exports, and the emailed report summary
	reportsHandler := reportsapifeature.NewHandler(services.Reports, services.Settings, services.Status, logger)
	reportsHandler.Mail = services.Mail
	reportsHandler.MailCfg = services.MailCfg
	reportsHandler.BaseURL = appCfg.BaseURL
	reportsHandler.MountRoutes(r)

	// Admin settings, reset, and test email
	settingsapifeature.NewHandler(services.Settings, services.Scheduler, services.Mail, services.MailCfg, logger).MountRoutes(r)

	// Manual refresh trigger and status polling
	updatefeature.NewHandler(services.Runner.Run, services.Status, logger).MountRoutes(r)

	// Employee photos proxied from Graph
	photofeature.NewHandler(services.Graph, logger).MountRoutes(r)

	// MicroSIP phone directory XML
	directoryfeature.NewHandler(services.Reports, services.Settings, logger).MountRoutes(r)

	return r, nil
}
