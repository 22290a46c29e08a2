package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alem-hub/learntrack/config"
	"github.com/alem-hub/learntrack/internal/application/command"
	"github.com/alem-hub/learntrack/internal/application/eventhandler"
	"github.com/alem-hub/learntrack/internal/application/query"
	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/learner"
	"github.com/alem-hub/learntrack/internal/domain/notification"
	"github.com/alem-hub/learntrack/internal/domain/unitofwork"
	"github.com/alem-hub/learntrack/internal/infrastructure/external/catalog"
	"github.com/alem-hub/learntrack/internal/infrastructure/messaging"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/learntrack/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/learntrack/internal/infrastructure/service"
	"github.com/alem-hub/learntrack/internal/interface/http/handlers"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE
// ══════════════════════════════════════════════════════════════════════════════

// storage is the persistence surface the application layer needs,
// independent of the driver.
type storage struct {
	uow           unitofwork.UnitOfWork
	courses       course.Repository
	learners      learner.Repository
	notifications notification.Repository
	ping          handlers.HealthCheckFunc

	// pg is set for the postgres driver only; migrate needs it.
	pg *postgres.Connection
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, state is lost on exit")
		st := memory.NewStore()
		return &storage{
			uow:           st,
			courses:       st.Courses(),
			learners:      st.Learners(),
			notifications: st.Notifications(),
			ping:          st.Ping,
		}, func() {}, nil

	case config.StoragePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Database.URL
		pgCfg.MaxConns = int32(cfg.Database.MaxConns)
		pgCfg.MinConns = int32(cfg.Database.MinConns)
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		conn, err := postgres.NewConnection(ctx, pgCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("database connection established")

		st := postgres.NewStore(conn)
		return &storage{
			uow:           st.UoW,
			courses:       st.Courses,
			learners:      st.Learners,
			notifications: st.Notifications,
			ping:          conn.Ping,
			pg:            conn,
		}, conn.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// application holds every wired component for one process.
type application struct {
	cfg *config.Config
	log *logger.Logger

	storage       *storage
	cache         *redis.Cache
	catalogClient *catalog.Client
	bus           *messaging.InMemoryEventBus

	enroll        *command.EnrollCourseHandler
	complete      *command.CompleteLessonHandler
	initUser      *command.InitUserHandler
	notifications *command.NotificationHandler

	courseProgress    *query.GetCourseProgressHandler
	learnerSummary    *query.GetLearnerSummaryHandler
	listNotifications *query.ListNotificationsHandler

	closers []func()
}

// buildApplication wires storage, cache, catalog, bus and handlers.
// asyncEvents selects the bus mode: serve runs handlers in the background,
// one-shot commands deliver synchronously so nothing is lost on exit.
func buildApplication(ctx context.Context, cfg *config.Config, log *logger.Logger, asyncEvents bool) (*application, error) {
	app := &application{cfg: cfg, log: log}

	st, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.storage = st
	app.closers = append(app.closers, closeStorage)

	if st.pg != nil && cfg.Database.AutoMigrate {
		n, err := postgres.NewMigrator(st.pg).Migrate(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("migrations applied", logger.Int("count", n))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Cache (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var progressCache course.ProgressCache
	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(redisConfig(cfg))
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Err(err))
		} else {
			app.cache = cache
			app.closers = append(app.closers, func() { _ = cache.Close() })
			progressCache = redis.NewProgressCache(cache, cfg.Catalog.ProgressCacheTTL)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Catalog
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := catalog.DefaultClientConfig(cfg.Catalog.BaseURL)
	clientCfg.APIKey = cfg.Catalog.APIKey
	clientCfg.Timeout = cfg.Catalog.RequestTimeout
	clientCfg.RateLimit = cfg.Catalog.RateLimit
	clientCfg.Burst = cfg.Catalog.RateLimitBurst
	clientCfg.BreakerFailureThreshold = cfg.Catalog.CircuitBreakerThreshold
	clientCfg.BreakerOpenTimeout = cfg.Catalog.CircuitBreakerTimeout
	clientCfg.Logger = log
	app.catalogClient = catalog.NewClient(clientCfg)

	var catalogSource course.Catalog = app.catalogClient
	if app.cache != nil {
		catalogSource = redis.NewCachedCatalog(app.catalogClient, app.cache, cfg.Catalog.CacheTTL, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.AsyncMode = asyncEvents
	busCfg.Logger = log
	app.bus = messaging.NewInMemoryEventBus(busCfg)
	app.closers = append(app.closers, func() { _ = app.bus.Close() })

	if progressCache != nil {
		invalidator := eventhandler.NewOnProgressChangedHandler(progressCache, log, eventhandler.DefaultProgressChangedConfig())
		if err := invalidator.Subscribe(app.bus); err != nil {
			app.Close()
			return nil, fmt.Errorf("subscribe progress invalidation: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────
	emitter := service.NewNotificationEmitter(st.notifications, log)

	app.enroll = command.NewEnrollCourseHandler(st.uow, catalogSource, app.bus, log, command.EnrollCourseHandlerConfig{
		FetchTimeout: cfg.Catalog.FetchTimeout,
	})
	app.complete = command.NewCompleteLessonHandler(st.uow, emitter, app.bus, log)
	app.initUser = command.NewInitUserHandler(st.uow)
	app.notifications = command.NewNotificationHandler(st.notifications)

	app.courseProgress = query.NewGetCourseProgressHandler(st.courses, progressCache, log)
	app.learnerSummary = query.NewGetLearnerSummaryHandler(st.learners, st.notifications)
	app.listNotifications = query.NewListNotificationsHandler(st.notifications)

	return app, nil
}

// healthChecker registers storage as critical and cache/catalog as optional.
func (a *application) healthChecker() *handlers.CompositeHealthChecker {
	checker := handlers.NewCompositeHealthChecker(a.cfg.App.Version)
	checker.AddCheck("storage", a.storage.ping)
	if a.cache != nil {
		checker.AddOptionalCheck("cache", handlers.NewPingCheck(a.cache))
	}
	checker.AddOptionalCheck("catalog", handlers.NewBreakerCheck(a.catalogClient))
	return checker
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.URL = cfg.Redis.URL
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

// ══════════════════════════════════════════════════════════════════════════════
// BOOTSTRAP
// ══════════════════════════════════════════════════════════════════════════════

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Observability.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Observability.LogFormat = flagLogFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddCaller: cfg.IsDevelopment(),
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// withApplication runs fn against a freshly wired application and tears it down.
func withApplication(ctx context.Context, asyncEvents bool, fn func(ctx context.Context, app *application) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	app, err := buildApplication(ctx, cfg, log, asyncEvents)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(logger.WithContext(ctx, log), app)
}
