package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appsales "github.com/focusvent/backend/internal/application/sales"
	"github.com/focusvent/backend/internal/infrastructure/cache"
	"github.com/focusvent/backend/internal/infrastructure/config"
	"github.com/focusvent/backend/internal/infrastructure/logger"
	"github.com/focusvent/backend/internal/infrastructure/persistence"
	"github.com/focusvent/backend/internal/infrastructure/telemetry"
	"github.com/focusvent/backend/internal/interfaces/http/handler"
	"github.com/focusvent/backend/internal/interfaces/http/middleware"
	"github.com/focusvent/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// Telemetry providers; each is a no-op when disabled
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() { _ = loggerProvider.Shutdown(context.Background()) }()
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting focusvent backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Database with a zap backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbSystem := "postgresql"
	if db.Driver() == config.DriverSQLite {
		dbSystem = "sqlite"
		// Postgres schemas come from cmd/migrate; local SQLite files are created in place
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:           dbSystem,
		IncludeQueryValues: cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Application services
	lineItemRepo := persistence.NewGormLineItemRepository(db.DB)
	reconciler := appsales.NewLineItemReconciler(persistence.NewGormTransactionScope(db.DB), log.Named("reconciler"))
	reconciler.SetPruneOmitted(cfg.Reconcile.PruneOmitted)

	locker, closeLocker, err := newSaleLocker(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize sale lock", zap.Error(err))
	}
	defer closeLocker()
	reconciler.SetSaleLocker(locker)

	meter := meterProvider.Meter("focusvent.sales")
	reconcileMetrics, err := telemetry.NewReconcileMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create reconcile metrics", zap.Error(err))
	}
	reconciler.SetMetrics(reconcileMetrics)

	lineItemService := appsales.NewLineItemService(lineItemRepo)

	// HTTP handlers
	lineItemHandler := handler.NewLineItemHandler(reconciler, lineItemService)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meterProvider.Meter("http.server"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	// Middleware order: tracing span first so every later step is inside it,
	// then request id, recovery, logging, and the request guards.
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		r.Use(middleware.RateLimit(limiter))
		log.Info("API rate limit enabled",
			zap.Int("limit", cfg.HTTP.RateLimit),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	r.Register(router.SalesRoutes(lineItemHandler)).
		Register(router.LineItemRoutes(lineItemHandler)).
		Register(router.SystemRoutes(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// newSaleLocker builds the per-sale lock selected by reconcile.lock_backend.
// The returned func releases backend resources.
func newSaleLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (appsales.SaleLocker, func(), error) {
	noop := func() {}
	switch cfg.Reconcile.LockBackend {
	case config.LockBackendNone:
		log.Info("Sale lock disabled; relying on row locks and upserts")
		return appsales.NoopSaleLocker{}, noop, nil

	case config.LockBackendLocal:
		log.Info("Using in-process sale lock", zap.Duration("wait", cfg.Reconcile.LockWait))
		return appsales.NewLocalSaleLocker(cfg.Reconcile.LockWait), noop, nil

	case config.LockBackendRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis, cache.ClientOptions{
			Tracing: cfg.Telemetry.Enabled,
			Metrics: cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		log.Info("Using Redis sale lock",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Duration("ttl", cfg.Reconcile.LockTTL),
			zap.Duration("wait", cfg.Reconcile.LockWait),
		)
		closeClient := func() {
			if err := client.Close(); err != nil {
				log.Warn("Error closing Redis client", zap.Error(err))
			}
		}
		return cache.NewRedisSaleLocker(client, cfg.Reconcile.LockTTL, cfg.Reconcile.LockWait), closeClient, nil

	default:
		return nil, noop, fmt.Errorf("unknown lock backend %q", cfg.Reconcile.LockBackend)
	}
}
