package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lintaskurir/lintaskurir/internal/app"
	"github.com/lintaskurir/lintaskurir/internal/attendance"
	"github.com/lintaskurir/lintaskurir/internal/audit"
	audithttp "github.com/lintaskurir/lintaskurir/internal/audit/http"
	"github.com/lintaskurir/lintaskurir/internal/auth"
	"github.com/lintaskurir/lintaskurir/internal/geofence"
	"github.com/lintaskurir/lintaskurir/internal/observability"
	"github.com/lintaskurir/lintaskurir/internal/packages"
	"github.com/lintaskurir/lintaskurir/internal/platform/cache"
	"github.com/lintaskurir/lintaskurir/internal/platform/db"
	"github.com/lintaskurir/lintaskurir/internal/scan"
	"github.com/lintaskurir/lintaskurir/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	businessTZ, err := cfg.Location()
	if err != nil {
		logger.Error("load timezone", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// Redis backs both bearer tokens and the zone cache, so it is required.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Tokens: tokens, Logger: logger}

	zoneCache := geofence.NewCache(redisClient, 5*time.Minute)
	geofenceRepo := geofence.NewRepository(dbpool)
	geofenceService := geofence.NewService(geofenceRepo, zoneCache)
	geofenceHandler := geofence.NewHandler(logger, geofenceService)

	packageRepo := packages.NewRepository(dbpool)
	packageService := packages.NewService(packageRepo)
	packageHandler := packages.NewHandler(logger, packageService)

	scanRepo := scan.NewRepository(dbpool)
	scanService := scan.NewService(packageService, scanRepo)
	scanHandler := scan.NewHandler(logger, scanService)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, geofenceService, businessTZ)
	attendanceHandler := attendance.NewHandler(logger, attendanceService)

	auditService := audit.NewService(audit.NewPgRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthMiddleware:    authMiddleware,
		AuthHandler:       authHandler,
		PackagesHandler:   packageHandler,
		ScanHandler:       scanHandler,
		AttendanceHandler: attendanceHandler,
		GeofenceHandler:   geofenceHandler,
		AuditHandler:      auditHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
