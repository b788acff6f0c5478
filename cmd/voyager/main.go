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

	"github.com/voyager-erp/voyager-erp/internal/app"
	"github.com/voyager-erp/voyager-erp/internal/ledger/accounts"
	"github.com/voyager-erp/voyager-erp/internal/ledger/finmap"
	"github.com/voyager-erp/voyager-erp/internal/ledger/vouchers"
	"github.com/voyager-erp/voyager-erp/internal/observability"
	"github.com/voyager-erp/voyager-erp/internal/platform/cache"
	"github.com/voyager-erp/voyager-erp/internal/platform/db"
	"github.com/voyager-erp/voyager-erp/internal/sequence"
	"github.com/voyager-erp/voyager-erp/jobs"
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, listing cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	auditClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
	defer func() {
		if err := auditClient.Close(); err != nil {
			logger.Warn("audit client close", slog.Any("error", err))
		}
	}()

	sequenceRepo := sequence.NewRepository(pool, cfg.SequenceMaxRetries)
	sequenceService := sequence.NewService(sequenceRepo, metrics)
	sequenceHandler := sequence.NewHandler(logger, sequenceService, auditClient)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	finmapRepo := finmap.NewRepository(pool)
	finmapResolver := finmap.NewResolver(finmapRepo, cfg.FinMapCacheTTL)
	finmapHandler := finmap.NewHandler(logger, finmapRepo, finmapResolver)

	voucherCache := vouchers.NewCache(redisClient, cfg.VoucherCacheTTL)
	voucherRepo := vouchers.NewRepository(pool)
	voucherService := vouchers.NewService(voucherRepo, accountsService, voucherCache, metrics, logger)
	voucherHandler := vouchers.NewHandler(logger, voucherService, sequenceService, finmapResolver, auditClient)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SequenceHandler: sequenceHandler,
		AccountsHandler: accountsHandler,
		VouchersHandler: voucherHandler,
		FinMapHandler:   finmapHandler,
		Metrics:         metrics,
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
