package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	"golang.org/x/time/rate"

	adoptionserver "github.com/Apurer/go-gin-dog-adoption/go"
	"github.com/Apurer/go-gin-dog-adoption/internal/clients/http/fetchdogs"
	rediscache "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/cache/redis"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/external/catalog"
	adoptionmemory "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/memory"
	adoptionobs "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/observability"
	adoptionpostgres "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/persistence/postgres"
	adoptionworkflows "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/workflows"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/application"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	"github.com/Apurer/go-gin-dog-adoption/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-dog-adoption/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-dog-adoption/internal/platform/postgres"
	platformtemporal "github.com/Apurer/go-gin-dog-adoption/internal/platform/temporal"
)

const serviceName = "dog-adoption-api"

// Run boots the dog adoption HTTP API with observability, the catalog dialer, the workspace
// store and session housekeeping wired. It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	store, shared, cleanupStore := buildWorkspaceStore(ctx, cfg, logger)
	defer cleanupStore()

	dialer, cleanupDialer, err := buildDialer(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer cleanupDialer()

	workspaces := application.NewWorkspaces(
		dialer.Dial,
		application.WithWorkspaceStore(store),
		application.WithWorkspaceLogger(logger),
		application.WithSessionTTL(cfg.SessionTTL),
	)

	purgeInterval := cfg.SessionPurgeInterval(application.DefaultPurgeInterval)
	var scheduler purgeScheduler
	if shared {
		if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
			logger.Warn("Temporal workflows unavailable, purging sessions inline", slog.String("error", err.Error()))
		} else {
			defer temporalClient.Close()
			scheduler = adoptionworkflows.NewTemporalSessionPurge(temporalClient)
		}
	}
	purger := selectSessionPurger(ctx, store, shared, scheduler, purgeInterval, logger)
	housekeeperCtx, stopHousekeeper := context.WithCancel(ctx)
	defer stopHousekeeper()
	go application.NewHousekeeper(workspaces, purger, purgeInterval, logger).Run(housekeeperCtx)

	sessions := adoptionserver.NewSessions(
		workspaces,
		adoptionserver.WithSecureCookie(cfg.CookieSecure),
		adoptionserver.WithCookieMaxAge(cfg.SessionTTL),
		adoptionserver.WithLogger(logger),
	)
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	}
	adoptionserver.NewRouterWithGinEngine(router, adoptionserver.NewApiHandleFunctions(sessions))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Dog adoption API listening", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Dog adoption API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("Dog adoption API stopped")
	return nil
}

// purgeScheduler hands the snapshot purge to something outside this process.
type purgeScheduler interface {
	Schedule(ctx context.Context, interval time.Duration) error
}

// selectSessionPurger returns the purger the housekeeper runs, or nil when a schedule owns the
// purge. Only a shared store can be purged by another process; a store private to this
// process is always purged inline.
func selectSessionPurger(ctx context.Context, store ports.WorkspaceStore, shared bool, scheduler purgeScheduler, interval time.Duration, logger *slog.Logger) ports.SessionPurger {
	inline := adoptionworkflows.NewInlineSessionPurge(store)
	if !shared {
		logger.Info("workspace store is private to this process, purging sessions inline")
		return inline
	}
	if scheduler == nil {
		return inline
	}
	if err := scheduler.Schedule(ctx, interval); err != nil {
		logger.Warn("failed to schedule session purge workflow, purging sessions inline", slog.String("error", err.Error()))
		return inline
	}
	logger.Info("Temporal session purge scheduled", slog.Duration("interval", interval))
	return nil
}

// buildWorkspaceStore reports shared=true only for postgres, which other processes can reach.
func buildWorkspaceStore(ctx context.Context, cfg Config, logger *slog.Logger) (store ports.WorkspaceStore, shared bool, cleanup func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory workspace store")
		return adoptionmemory.NewWorkspaceStore(), false, func() {}
	}
	db, closeDB, err := platformpostgres.Connect(ctx, cfg.PostgresDSN,
		platformpostgres.WithPool(10, 5),
		platformpostgres.WithConnMaxLifetime(30*time.Minute),
		platformpostgres.WithMigrations(migrations.Run),
	)
	if err != nil {
		logger.Warn("postgres unavailable, falling back to in-memory workspace store", slog.String("error", err.Error()))
		return adoptionmemory.NewWorkspaceStore(), false, func() {}
	}
	logger.Info("workspace store configured with postgres")
	return adoptionpostgres.NewWorkspaceStore(db), true, func() { _ = closeDB() }
}

// buildDialer shares one breaker, limiter and breed cache across all catalog sessions.
func buildDialer(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*catalog.Dialer, func(), error) {
	logger := instruments.Logger
	cleanup := func() {}
	breaker := fetchdogs.NewCircuitBreaker("fetch-dogs", 30*time.Second, func(name string, from, to gobreaker.State) {
		logger.Warn("catalog circuit breaker changed state", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
	})
	opts := []catalog.DialerOption{
		catalog.WithTimeout(cfg.CatalogTimeout),
		catalog.WithCircuitBreaker(breaker),
	}
	if cfg.CatalogRateLimitRPS > 0 {
		burst := max(1, int(cfg.CatalogRateLimitRPS))
		opts = append(opts, catalog.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.CatalogRateLimitRPS), burst)))
	}
	if cfg.RedisURL != "" {
		redisClient, err := rediscache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, breed list will not be cached", slog.String("error", err.Error()))
		} else {
			cache := rediscache.NewBreedCache(redisClient, rediscache.WithTTL(cfg.BreedsCacheTTL), rediscache.WithLogger(logger))
			opts = append(opts, catalog.WithCatalogDecorator(cache.Decorate))
			cleanup = func() { _ = redisClient.Close() }
			logger.Info("breed list cached in redis", slog.Duration("ttl", cfg.BreedsCacheTTL))
		}
	}
	opts = append(opts, catalog.WithCatalogDecorator(adoptionobs.Decorator(
		adoptionobs.WithLogger(logger),
		adoptionobs.WithTracer(instruments.Tracer("internal.adoption.catalog")),
		adoptionobs.WithMeter(instruments.Meter("internal.adoption.catalog")),
	)))
	dialer, err := catalog.NewDialer(cfg.CatalogBaseURL, opts...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to configure catalog client: %w", err)
	}
	return dialer, cleanup, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	return platformtemporal.Dial(platformtemporal.Settings{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	}, instruments, "temporal-client")
}
