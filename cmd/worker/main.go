package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lintaskurir/lintaskurir/internal/app"
	"github.com/lintaskurir/lintaskurir/internal/attendance"
	"github.com/lintaskurir/lintaskurir/internal/auth"
	"github.com/lintaskurir/lintaskurir/internal/geofence"
	"github.com/lintaskurir/lintaskurir/internal/observability"
	"github.com/lintaskurir/lintaskurir/internal/platform/cache"
	"github.com/lintaskurir/lintaskurir/internal/platform/db"
	"github.com/lintaskurir/lintaskurir/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	zoneCache := geofence.NewCache(redisClient, 5*time.Minute)
	geofenceService := geofence.NewService(geofence.NewRepository(pool), zoneCache)

	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(attendanceRepo, geofenceService, businessTZ)
	directory := auth.NewRepository(pool)

	metrics := observability.NewMetrics()

	sweepHandler := jobs.NewAbsentSweepHandler(jobs.AbsentSweepDeps{
		Attendance: attendanceService,
		Directory:  directory,
		Metrics:    metrics,
		Logger:     logger,
	})

	sweepTask, err := jobs.NewAbsentSweepTask(jobs.AbsentSweepPayload{})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAttendanceAbsentSweep, Handler: sweepHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AbsentSweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
