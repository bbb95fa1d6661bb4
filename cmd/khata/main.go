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

	"github.com/khata-erp/khata-erp/internal/app"
	"github.com/khata-erp/khata-erp/internal/catalog"
	"github.com/khata-erp/khata-erp/internal/dues"
	"github.com/khata-erp/khata-erp/internal/finance"
	"github.com/khata-erp/khata-erp/internal/observability"
	"github.com/khata-erp/khata-erp/internal/overview"
	"github.com/khata-erp/khata-erp/internal/platform/cache"
	"github.com/khata-erp/khata-erp/internal/platform/db"
	"github.com/khata-erp/khata-erp/internal/purchases"
	"github.com/khata-erp/khata-erp/internal/report"
	"github.com/khata-erp/khata-erp/internal/report/export"
	"github.com/khata-erp/khata-erp/internal/sales"
	"github.com/khata-erp/khata-erp/internal/shared"
	"github.com/khata-erp/khata-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	readCache := cache.New(redisClient, cfg.CacheTTL)
	clock := shared.SystemClock{}
	idempotency := shared.NewIdempotencyStore(pool)
	auditLogger := shared.NewAuditLogger(pool)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, clock)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, clock, idempotency)
	salesHandler := sales.NewHandler(logger, salesService, readCache, auditLogger)

	purchasesRepo := purchases.NewRepository(pool)
	purchasesService := purchases.NewService(purchasesRepo, clock, idempotency)
	purchasesHandler := purchases.NewHandler(logger, purchasesService, readCache, auditLogger)

	duesRepo := dues.NewRepository(pool)
	duesService := dues.NewService(duesRepo, clock)
	duesHandler := dues.NewHandler(logger, duesService)

	financeRepo := finance.NewRepository(pool)
	financeService := finance.NewService(financeRepo, clock)
	financeHandler := finance.NewHandler(logger, financeService, readCache)

	overviewRepo := overview.NewRepository(pool)
	overviewService := overview.NewService(overviewRepo, readCache, clock, cfg.OfficeAssetsValue)
	overviewHandler := overview.NewHandler(logger, overviewService)

	reportRepo := report.NewRepository(pool)
	reportService := report.NewService(reportRepo, readCache)
	renderer := &export.HTTPRenderer{
		PDF: &export.PDFExporter{Endpoint: cfg.GotenbergURL, Client: http.DefaultClient},
	}
	reportHandler := report.NewHandler(logger, reportService, renderer)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		CatalogHandler:   catalogHandler,
		SalesHandler:     salesHandler,
		PurchasesHandler: purchasesHandler,
		DuesHandler:      duesHandler,
		FinanceHandler:   financeHandler,
		OverviewHandler:  overviewHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
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
