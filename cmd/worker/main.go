package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/khata-erp/khata-erp/internal/app"
	jobmetrics "github.com/khata-erp/khata-erp/internal/jobs"
	"github.com/khata-erp/khata-erp/internal/overview"
	"github.com/khata-erp/khata-erp/internal/platform/cache"
	"github.com/khata-erp/khata-erp/internal/platform/db"
	"github.com/khata-erp/khata-erp/internal/report"
	"github.com/khata-erp/khata-erp/internal/shared"
	"github.com/khata-erp/khata-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	readCache := cache.New(redisClient, cfg.CacheTTL)
	clock := shared.SystemClock{}

	overviewRepo := overview.NewRepository(pool)
	overviewService := overview.NewService(overviewRepo, readCache, clock, cfg.OfficeAssetsValue)

	reportRepo := report.NewRepository(pool)
	reportService := report.NewService(reportRepo, readCache)

	warmupJob := jobs.NewReportWarmupJob(reportService, overviewService, logger, jobmetrics.NewMetrics(nil))

	warmupTask, err := jobs.NewReportWarmupTask(1)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
