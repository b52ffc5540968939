package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bwirakes/temu-v2/internal/onboarding/cache"
	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	httpapi "github.com/bwirakes/temu-v2/internal/onboarding/http"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/internal/onboarding/store/drivers/postgres"
	"github.com/bwirakes/temu-v2/internal/onboarding/store/drivers/sqlite"
	"github.com/bwirakes/temu-v2/pkg/cryptox"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = "temu-gate"
)

// Application wires the session gate service and owns its lifecycle.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	keyManager  *jwtx.KeyManager
	redis       *redis.Client
	cache       cache.Backend
	statusStore *service.StatusStore

	userService         *service.UserService
	authenticator       *service.StoreAuthenticator
	sessionService      *service.SessionService
	onboardingService   *service.OnboardingService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates the application with every dependency initialised.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	keyManager, err := InitSessionKeys(cfg, app.logger)
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to initialize session keys: %w", err)
	}
	app.keyManager = keyManager

	app.initCache(ctx)

	if err := app.initServices(); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		app.closeAll()
		return nil, err
	}

	return app, nil
}

// Handler exposes the instrumented HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.server.Handler
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("session gate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"cache", app.cfg.CacheBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeAll()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops the worker and closes
// connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down session gate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("session gate stopped")
	return nil
}

func (app *Application) closeAll() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initCache picks the status cache backend. An unreachable Redis falls back
// to the in-process cache so the gate keeps serving on one instance.
func (app *Application) initCache(ctx context.Context) {
	app.cache = cache.NewMemory()
	if app.cfg.CacheBackend != "redis" {
		return
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		app.logger.Warn("invalid REDIS_URL, using in-memory status cache", "error", err)
		return
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		app.logger.Warn("redis unavailable, using in-memory status cache", "error", err)
		return
	}

	app.redis = client
	app.cache = cache.NewRedis(client, app.cfg.StatusRetain)
	app.logger.Info("redis status cache connected", "addr", opts.Addr)
}

func (app *Application) initServices() error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	hasher := cryptox.NewHasher(pepper)

	resolver := service.NewStatusResolver(domain.DefaultPathTable())
	fetcher := &service.StoreFetcher{Store: app.db, Resolver: resolver}
	app.statusStore = service.NewStatusStore(
		app.cache,
		fetcher.Fetch,
		resolver,
		app.cfg.StatusStoreConfig(),
		service.WithLogger(app.logger),
	)

	app.userService = &service.UserService{Store: app.db, Hasher: hasher}
	app.authenticator, err = service.NewStoreAuthenticator(app.db, hasher)
	if err != nil {
		return err
	}
	app.sessionService = &service.SessionService{
		Signer:   app.keyManager.Signer,
		Enricher: service.NewTokenEnricher(app.statusStore, resolver, app.logger),
		Issuer:   app.cfg.SessionIssuer,
		TTL:      app.cfg.SessionTTL,
	}
	app.onboardingService = &service.OnboardingService{
		Store:  app.db,
		Cache:  app.statusStore,
		Logger: app.logger,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.statusStore,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() error {
	cookie := app.cfg.SessionCookie()

	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		cookie,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.UserService = app.userService
	router.Authenticator = app.authenticator
	router.SessionService = app.sessionService
	router.OnboardingService = app.onboardingService
	router.Limits = app.cfg.RateLimits()
	router.Gate = &httpapi.GateMiddleware{
		Gate:         service.NewRouteGate(app.cfg.GateConfig(), app.statusStore, app.logger),
		Sessions:     app.sessionService,
		Cookie:       cookie,
		RefreshAfter: app.cfg.SessionRefreshAfter,
	}
	if r, ok := app.cache.(*cache.Redis); ok {
		router.CachePinger = r
	}
	if app.cfg.FrontendURL != "" {
		u, err := url.Parse(app.cfg.FrontendURL)
		if err != nil {
			return fmt.Errorf("parse FRONTEND_URL: %w", err)
		}
		router.Frontend = u
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
