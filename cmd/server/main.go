package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/bootstrap"
	"github.com/lpgledger/backend/internal/domain/shared"
	"github.com/lpgledger/backend/internal/infrastructure/auth"
	"github.com/lpgledger/backend/internal/infrastructure/cache"
	"github.com/lpgledger/backend/internal/infrastructure/config"
	"github.com/lpgledger/backend/internal/infrastructure/event"
	"github.com/lpgledger/backend/internal/infrastructure/logger"
	"github.com/lpgledger/backend/internal/infrastructure/metrics"
	"github.com/lpgledger/backend/internal/infrastructure/notification"
	"github.com/lpgledger/backend/internal/infrastructure/persistence"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/models"
	"github.com/lpgledger/backend/internal/infrastructure/persistence/tenant"
	"github.com/lpgledger/backend/internal/infrastructure/scheduler"
	"github.com/lpgledger/backend/internal/infrastructure/telemetry"
	"github.com/lpgledger/backend/internal/interfaces/http/handler"
	"github.com/lpgledger/backend/internal/interfaces/http/middleware"
	"github.com/lpgledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/lpgledger/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			LPG Ledger API
//	@version		1.0
//	@description	Multi-tenant receivables ledger and cylinder reconciliation for LPG distributors
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/lpgledger/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
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

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting LPG ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	guard := tenant.NewGuard(tenant.ParseMode(cfg.Database.TenantGuard), log, models.TenantTables()...)
	if err := guard.Register(db.DB); err != nil {
		log.Fatal("Failed to register tenant guard", zap.Error(err))
	}

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	backends, err := cache.NewBackends(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize cache backends", zap.Error(err))
	}
	defer func() {
		_ = backends.Close()
	}()

	registry := metrics.NewRegistry(true)

	// Events: ledger changes go to the outbox inside the business transaction
	// and reach the notifier through the processor and the in-process bus.
	serializer := event.NewLedgerEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(serializer)
	bus := event.NewInMemoryEventBus(log)

	notifier, err := notification.New(cfg.Notification, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier", zap.Error(err))
	}
	bus.Subscribe(event.NewIdempotentHandler(
		appledger.NewNotificationHandler(notifier, log),
		backends.Idempotency,
		shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true},
		log,
	))
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processor = event.NewOutboxProcessor(
			event.NewGormOutboxRepository(db.DB),
			bus,
			serializer,
			event.OutboxProcessorConfig{
				BatchSize:        cfg.Event.BatchSize,
				PollInterval:     cfg.Event.PollInterval,
				CleanupEnabled:   cfg.Event.CleanupEnabled,
				CleanupRetention: cfg.Event.CleanupRetention,
				CleanupInterval:  time.Hour,
			},
			log,
		)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	} else {
		log.Warn("Outbox processor disabled, ledger notifications stay in the outbox")
	}

	pingers := map[string]handler.Pinger{
		"database": db,
		"cache":    backends,
	}
	deps := bootstrap.LedgerDependencies(db.DB, outboxPublisher, backends, registry, cfg.Ledger, log)
	archive, err := bootstrap.ArchiveStorage(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize report archive", zap.Error(err))
	}
	if archive != nil {
		deps.Archive = archive
		pingers["archive"] = archive
	}
	services := bootstrap.NewLedgerServices(deps)

	var nightly *scheduler.DailyTrigger
	if cfg.Ledger.NightlyRecalculation {
		nightly, err = scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
			Name:    "recalculate_all_tenants",
			At:      cfg.Ledger.NightlyRecalculationAt,
			Timeout: 2 * time.Hour,
		}, bootstrap.NightlyJob(services, archive != nil, deps.Clock), log)
		if err != nil {
			log.Fatal("Invalid nightly recalculation schedule", zap.Error(err))
		}
		if err := nightly.Start(ctx); err != nil {
			log.Fatal("Failed to start nightly recalculation", zap.Error(err))
		}
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, pingers)
	handlers := router.LedgerHandlers{
		Receivables:   handler.NewReceivableHandler(services.Ledger),
		Recalculation: handler.NewRecalculationHandler(services.Recalculation, cfg.Ledger.DefaultRecalculateDays),
		Reports:       handler.NewReportHandler(services.Breakdown, services.Valuation, services.Reports),
		Sales:         handler.NewSalesHandler(services.Sales),
		System:        systemHandler,
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SpanErrorMarker(),
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.HTTPMetrics(registry),
	)

	jwtService := auth.NewJWTService(cfg.JWT)
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		Validator: jwtService,
		Logger:    log,
	})

	var metricsHandler gin.HandlerFunc
	if cfg.Telemetry.MetricsEnabled {
		metricsHandler = gin.WrapH(registry.Handler())
	}
	var docs []gin.HandlerFunc
	if cfg.Swagger.Enabled {
		docs = []gin.HandlerFunc{
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:     cfg.Swagger.Enabled,
				RequireAuth: cfg.Swagger.RequireAuth,
				AllowedIPs:  cfg.Swagger.AllowedIPs,
			}, jwtMiddleware),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		}
	}
	router.RootRoutes(engine, systemHandler, metricsHandler, docs...)

	api := router.NewRouter(engine).Use(jwtMiddleware, middleware.TracingAttributeInjector())
	router.RegisterLedger(api, handlers).Setup()

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if nightly != nil {
		if err := nightly.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop nightly recalculation", zap.Error(err))
		}
	}
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop outbox processor", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop event bus", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush log exporter", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush trace exporter", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
