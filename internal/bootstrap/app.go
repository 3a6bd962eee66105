// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/cvs"
	"jobtracker/internal/jobs"
	"jobtracker/internal/shared/config"
	"jobtracker/internal/shared/server"
	"jobtracker/internal/shared/storage/db"
	"jobtracker/internal/shared/telemetry"
	"jobtracker/internal/webhooks"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	Logger   *telemetry.Logger
	Cache    *db.Cache
	Webhooks *webhooks.Client

	JobsRepo   jobs.Repo
	CvsRepo    cvs.Repo
	JobService *jobs.Service
	CvService  *cvs.Service
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.LogServiceName) == "" {
		cfg.LogServiceName = "job-tracker-api"
	}

	logger := telemetry.NewFromSettings(telemetry.Settings{
		Service:      cfg.LogServiceName,
		CollectorURL: cfg.LogCollectorURL,
		Shipping:     cfg.LogShipping,
	})
	telemetry.SetDefault(logger)

	cache, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		Cache:  cache,
		Webhooks: webhooks.New(cfg.Webhooks, webhooks.Options{
			Timeout:    cfg.WebhookTimeout,
			RatePerSec: cfg.WebhookRatePerSec,
		}, logger),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		JobHandler:      jobs.NewHandler(app.JobService),
		CvHandler:       cvs.NewHandler(app.CvService),
		WorkflowHandler: webhooks.NewHandler(app.Webhooks),
		Cache:           cache,
	})

	return app, nil
}

// Close waits for queued webhook deliveries, then releases the database and flushes logs.
func (a *App) Close() error {
	a.Webhooks.Wait()
	var cacheErr error
	if a.Cache != nil {
		cacheErr = a.Cache.Close()
	}
	return errors.Join(cacheErr, a.Logger.Close())
}

// buildCache returns nil when the in-memory repositories should be used. The connection itself
// is opened lazily by the first repository call.
func buildCache(cfg config.Config) (*db.Cache, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cache := db.NewCache(cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	cache.OnConnect = db.RunMigrations
	return cache, nil
}

func buildServices(app *App) {
	if app.Cache != nil {
		app.JobsRepo = &jobs.PGRepo{Cache: app.Cache, Log: app.Logger}
		app.CvsRepo = &cvs.PGRepo{Cache: app.Cache, Log: app.Logger}
	} else {
		app.JobsRepo = jobs.NewMemoryRepo()
		app.CvsRepo = cvs.NewMemoryRepo()
	}

	app.JobService = jobs.NewService(app.JobsRepo, app.Webhooks)
	app.CvService = cvs.NewService(app.CvsRepo)
}
