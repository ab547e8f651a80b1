// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/orgchart/internal/app/store/reportcache"
	settingsstore "github.com/dalemusser/orgchart/internal/app/store/settings"
	"github.com/dalemusser/orgchart/internal/app/store/updatestatus"
	"github.com/dalemusser/orgchart/internal/app/system/auth"
	"github.com/dalemusser/orgchart/internal/app/system/graph"
	"github.com/dalemusser/orgchart/internal/app/system/mailer"
	"github.com/dalemusser/orgchart/internal/app/system/refresh"
	"github.com/dalemusser/orgchart/internal/app/system/timeouts"
	"github.com/dalemusser/orgchart/internal/app/system/workers"
)

// services holds the long-lived components shared between the Startup hook
// (which builds and starts them) and BuildHandler/Shutdown (which wire and
// tear them down). WAFFLE hooks pass config and DB deps but not arbitrary
// app state, so the wiring lives here at package level.
var services struct {
	Settings  *settingsstore.Store
	Status    *updatestatus.Store
	Cache     reportcache.Store
	Reports   *reportcache.Manager
	Graph     *graph.Client
	Runner    *refresh.Runner
	Scheduler *workers.UpdateScheduler
	Mail      *mailer.Mailer
	MailCfg   mailer.Config
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It wires
// the Graph client, refresh pipeline, and update scheduler, clears any
// update lock a previous process left behind, and kicks off the scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeout overrides applied from environment", zap.Int("count", n))
	}

	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		return err
	}

	services.Settings = settingsstore.New(deps.MongoDatabase)
	services.Status = updatestatus.New(deps.MongoDatabase)
	services.Cache = reportcache.NewMongo(deps.MongoDatabase)

	services.Graph = graph.New(ctx, graph.Config{
		TenantID:     appCfg.AzureTenantID,
		ClientID:     appCfg.AzureClientID,
		ClientSecret: appCfg.AzureClientSecret,
		Endpoint:     appCfg.GraphEndpoint,
		BetaEndpoint: appCfg.GraphBetaEndpoint,
	}, logger)

	services.Runner = refresh.New(services.Graph, services.Settings, services.Cache, services.Status, logger)
	services.Reports = reportcache.NewManager(services.Cache, func(ctx context.Context) error {
		return services.Runner.Run(ctx, "cache-miss")
	}, logger)

	// A refresh interrupted by a crash or deploy would otherwise hold the
	// lock until the staleness window expires.
	if err := services.Status.ResetInterrupted(ctx); err != nil {
		logger.Warn("could not reset interrupted update status", zap.Error(err))
	}

	services.MailCfg = mailer.Config{
		Server:      appCfg.MailServer,
		Port:        appCfg.MailPort,
		Username:    appCfg.MailUsername,
		Password:    appCfg.MailPassword,
		FromAddress: appCfg.MailFrom,
		Encryption:  appCfg.MailEncryption,
	}
	services.Mail = mailer.New(services.MailCfg, logger)

	services.Scheduler = workers.NewUpdateScheduler(
		services.Runner.Run, services.Settings, services.Cache, logger, appCfg.RunInitialUpdate)
	services.Scheduler.Start()

	return nil
}
