package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/emmanuelfore/tarisa-sub001/internal/api/http"
	"github.com/emmanuelfore/tarisa-sub001/internal/api/http/handlers"
	"github.com/emmanuelfore/tarisa-sub001/internal/auth"
	"github.com/emmanuelfore/tarisa-sub001/internal/config"
	"github.com/emmanuelfore/tarisa-sub001/internal/duplicate"
	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
	"github.com/emmanuelfore/tarisa-sub001/internal/events"
	"github.com/emmanuelfore/tarisa-sub001/internal/observability"
	"github.com/emmanuelfore/tarisa-sub001/internal/persistence"
	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository/memory"
	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
	"github.com/emmanuelfore/tarisa-sub001/internal/service"
	"github.com/emmanuelfore/tarisa-sub001/internal/worker"
)

// Container holds the wired dependency graph shared by the API server and
// the operator CLI.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Postgres *persistence.Postgres
	Redis    *persistence.Redis

	Issues        repository.IssueRepository
	History       repository.IssueHistoryRepository
	Jurisdictions repository.JurisdictionRepository
	Departments   repository.DepartmentRepository

	Rules      *routing.RuleSet
	Reference  *refdata.Manager
	Dispatcher events.Dispatcher
	Detector   *duplicate.Detector
	Engine     *escalation.Engine
	Tokens     *auth.TokenManager

	Intake        *service.IntakeService
	IssueService  *service.IssueService
	Notifications *service.NotificationService

	EscalationWorker *worker.EscalationWorker
	Refresher        *worker.ReferenceRefresher

	nats *events.NATSDispatcher
	wg   sync.WaitGroup
}

// New connects backends and builds services. Without POSTGRES_DSN issues
// live in memory and reference data comes from the seed file.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.Postgres = pg
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			c.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	c.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)

	var source refdata.Source
	if pool := pg.PoolHandle(); pool != nil {
		c.Issues = repository.NewIssueRepository(pool)
		c.History = repository.NewIssueHistoryRepository(pool)
		c.Jurisdictions = repository.NewJurisdictionRepository(pool)
		c.Departments = repository.NewDepartmentRepository(pool)
		source = refdata.PostgresSource{Jurisdictions: c.Jurisdictions, Departments: c.Departments}
	} else {
		c.Issues = memory.NewIssueStore()
		c.History = memory.NewHistoryStore()
		source = refdata.FileSource{Path: cfg.Reference.SeedPath}
	}

	if cfg.Reference.RulesPath != "" {
		c.Rules, err = routing.LoadRulesFile(cfg.Reference.RulesPath)
	} else {
		c.Rules, err = routing.DefaultRules()
	}
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load assignment rules: %w", err)
	}

	var opts []refdata.ManagerOption
	if c.Redis.Enabled() {
		opts = append(opts, refdata.WithCache(refdata.NewRedisCache(c.Redis.Client, cfg.Reference.CacheKey, cfg.Reference.CacheTTL())))
	}
	c.Reference = refdata.NewManager(source, c.Rules, logger.Named("reference"), opts...)

	local := events.NewInMemoryDispatcher(logger.Named("events"))
	c.Dispatcher = local
	if cfg.NATS.URL != "" {
		nd, err := events.ConnectNATS(events.NATSConfig{
			URL:           cfg.NATS.URL,
			Name:          cfg.App.Name,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, local, logger.Named("nats"))
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		c.nats = nd
		c.Dispatcher = nd
	}

	c.Detector = duplicate.NewDetector(c.Issues, cfg.Duplicate.RadiusMeters)
	c.Engine, err = escalation.NewEngine(escalation.Dependencies{
		Issues:     c.Issues,
		History:    c.History,
		Snapshots:  c.Reference,
		Dispatcher: c.Dispatcher,
		Logger:     logger.Named("escalation"),
	}, escalation.Config{
		Policy: escalation.Policy{
			L3Multiplier:               cfg.Escalation.L3Multiplier,
			L4Multiplier:               cfg.Escalation.L4Multiplier,
			UnassignedResolutionFactor: cfg.Escalation.UnassignedResolutionFactor,
		},
		Workers:      cfg.Escalation.Workers,
		IssueTimeout: cfg.Escalation.IssueTimeout(),
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("build escalation engine: %w", err)
	}

	c.Intake = service.NewIntakeService(service.IntakeDependencies{
		Issues:     c.Issues,
		History:    c.History,
		Reference:  c.Reference,
		Detector:   c.Detector,
		Dispatcher: c.Dispatcher,
		Logger:     logger.Named("intake"),
	})
	c.IssueService = service.NewIssueService(service.IssueDependencies{
		Issues:     c.Issues,
		History:    c.History,
		Detector:   c.Detector,
		Engine:     c.Engine,
		Dispatcher: c.Dispatcher,
		Logger:     logger.Named("issues"),
	})
	c.Notifications = service.NewNotificationService(c.Dispatcher, logger.Named("notifications"), c.Metrics)
	worker.StartEventConsumers(logger.Named("workers"), c.Notifications)

	c.EscalationWorker = worker.NewEscalationWorker(c.Engine, cfg.Escalation.SweepInterval(), logger.Named("sweeper"), c.Metrics)
	c.Refresher = worker.NewReferenceRefresher(c.Reference, cfg.Reference.RefreshInterval(), logger.Named("reference"), c.Metrics)
	c.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	// A failed first load is not fatal: intake still works on rule defaults
	// and the refresher keeps retrying.
	if _, err := c.Reference.Refresh(ctx); err != nil {
		c.Metrics.RecordRefreshFailure()
		logger.Warn("initial reference load failed", zap.Error(err))
	}
	return c, nil
}

// StartWorkers launches the background refresher and, when enabled, the
// escalation sweeper. They stop when ctx is cancelled.
func (c *Container) StartWorkers(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Refresher.Run(ctx)
	}()
	if !c.Config.Escalation.Enabled {
		c.Logger.Info("escalation sweeper disabled")
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.EscalationWorker.Run(ctx)
	}()
}

// Wait blocks until started workers return.
func (c *Container) Wait() {
	c.wg.Wait()
}

// NewApp builds the fiber application with middleware and routes.
func (c *Container) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               c.Config.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, c.Logger.Named("http"), c.Metrics, c.Config.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(c.Config.App.Name, c.Config.App.Version, c.Postgres, c.Redis, c.Reference),
		Metrics:        handlers.NewMetricsHandler(c.Metrics),
		Issues:         handlers.NewIssuesHandler(c.Intake, c.IssueService),
		Jurisdictions:  handlers.NewJurisdictionsHandler(c.Intake),
		Admin:          handlers.NewAdminHandler(c.EscalationWorker, c.Reference),
		AuthMiddleware: auth.NewAuthMiddleware(c.Tokens),
	})
	return app
}

// Close releases backend connections.
func (c *Container) Close() {
	if c.nats != nil {
		c.nats.Close()
	}
	c.Redis.Close()
	c.Postgres.Close()
}
