package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/civic-report/config"
	"github.com/oksasatya/civic-report/internal/application"
	"github.com/oksasatya/civic-report/internal/container"
	pginfra "github.com/oksasatya/civic-report/internal/infrastructure/postgres"
	"github.com/oksasatya/civic-report/internal/infrastructure/redisstore"
	"github.com/oksasatya/civic-report/internal/infrastructure/search"
	handlers "github.com/oksasatya/civic-report/internal/interface/http"
	"github.com/oksasatya/civic-report/internal/router/modules"
	"github.com/oksasatya/civic-report/pkg/helpers"
)

// Services groups the application layer built from the container.
type Services struct {
	Reports    *application.ReportService
	Admin      *application.AdminService
	Categories *application.CategoryService
	Users      *application.UserService
}

func buildServices(cfg *config.Config) (Services, modules.Guard, *handlers.Auditor) {
	pool := container.GetPGPool()
	logger := container.GetLogger()
	rdb := container.GetRedis()
	store := container.GetEvidence()

	users := pginfra.NewUserRepository(pool)
	categories := pginfra.NewCategoryRepository(pool)
	reports := pginfra.NewReportRepository(pool)
	responses := pginfra.NewResponseRepository(pool)
	sessions := redisstore.NewSessionStore(rdb)
	tokens := redisstore.NewTokenStore(rdb)

	var notifier *application.Notifier
	if pub := container.GetRabbitPub(); pub != nil {
		notifier = application.NewNotifier(pub, cfg.MailSendEnabled, cfg.AppName, cfg.FrontendBaseURL, logger)
	}

	reportSvc := application.NewReportService(reports, responses, categories, users, pginfra.NewTxManager(pool), store, logger)
	reportSvc.Notifier = notifier
	reportSvc.MaxImageBytes = cfg.MaxEvidenceBytes
	if es := container.GetES(); es != nil && cfg.SearchEnabled {
		reportSvc.Index = search.NewReportIndex(es, cfg.ESReportsIndex)
	}

	userSvc := application.NewUserService(users, reports, sessions, tokens, container.GetJWT(), logger)
	userSvc.Storage = store
	userSvc.Notifier = notifier
	userSvc.SessionTTL = cfg.RefreshTTL
	userSvc.VerifyTTL = cfg.VerifyTokenTTL
	userSvc.ResetTTL = cfg.ResetTokenTTL
	userSvc.VerifyEmailURL = cfg.VerifyEmailURL
	userSvc.ResetURL = cfg.ResetPasswordURL

	svcs := Services{
		Reports:    reportSvc,
		Admin:      application.NewAdminService(reports, responses, categories, users, cfg.Location()),
		Categories: application.NewCategoryService(categories, logger),
		Users:      userSvc,
	}
	guard := modules.Guard{Sessions: sessions, JWT: container.GetJWT(), RDB: rdb}
	return svcs, guard, handlers.NewAuditor(pginfra.NewAuditRepository(pool), logger)
}

// Mount registers every module for the given services on r.
func Mount(r *Registry, cfg *config.Config, svcs Services, guard modules.Guard, audit *handlers.Auditor, storageRoot string) {
	logger := container.GetLogger()

	authHandler := handlers.NewAuthHandler(svcs.Users, audit, logger, helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure))
	authHandler.ExposeLinks = !cfg.IsProduction()

	var ping func(c *gin.Context) error
	if pool := container.GetPGPool(); pool != nil {
		ping = func(c *gin.Context) error { return pool.Ping(c.Request.Context()) }
	}

	r.Add(modules.NewPublicModule(cfg.AppName, storageRoot, ping))
	r.Add(modules.NewAuthModule(authHandler, guard))
	r.Add(modules.NewUserModule(handlers.NewReportHandler(svcs.Reports, svcs.Categories, logger), guard))
	r.Add(modules.NewAdminModule(
		handlers.NewAdminHandler(svcs.Admin, svcs.Reports, audit, logger),
		handlers.NewCategoryHandler(svcs.Categories, audit, logger),
		handlers.NewUserHandler(svcs.Users, audit, logger),
		guard,
	))
	if cfg.DebugMetricsEnabled {
		metrics := promhttp.Handler()
		if reg := container.GetMetricsRegistry(); reg != nil {
			metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		}
		r.Add(modules.NewDebugModule(metrics, guard))
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svcs, guard, audit := buildServices(cfg)
	root := ""
	if cfg.StorageDriver == "local" {
		root = cfg.LocalStorageRoot
	}
	Mount(r, cfg, svcs, guard, audit, root)
}
