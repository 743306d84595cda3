package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aldercommerce/alder-admin/internal/app"
	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/coupons"
	"github.com/aldercommerce/alder-admin/internal/domains"
	"github.com/aldercommerce/alder-admin/internal/imports"
	jobmetrics "github.com/aldercommerce/alder-admin/internal/jobs"
	"github.com/aldercommerce/alder-admin/internal/platform/db"
	"github.com/aldercommerce/alder-admin/internal/platform/objstore"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
	"github.com/aldercommerce/alder-admin/jobs"
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

	store, err := objstore.New(objstore.Config{
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Endpoint:        cfg.S3Endpoint,
	})
	if err != nil {
		logger.Error("init object store", slog.Any("error", err))
		os.Exit(1)
	}

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

	recorder := audit.NewRecorder(pool)

	catalogClient := upstream.New("catalog", cfg.CatalogServiceURL, cfg.UpstreamTimeout)
	couponClient := upstream.New("coupon", cfg.CouponServiceURL, cfg.UpstreamTimeout)
	domainClient := upstream.New("custom-domain", cfg.DomainServiceURL, cfg.UpstreamTimeout)

	pusher := &jobs.UpstreamPusher{Catalog: catalogClient, Coupon: couponClient}
	importRepo := imports.NewPGRepository(pool)
	processor := imports.NewProcessor(importRepo, store, pusher, logger)

	couponService := coupons.NewService(couponClient, nil, recorder, jobClient)
	domainService := domains.NewService(domainClient, nil, recorder, nil)

	handlers := &jobs.Handlers{
		Importer:             processor,
		Coupons:              couponService,
		Domains:              domainService,
		Audit:                recorder,
		Idempotency:          shared.NewIdempotencyStore(pool),
		Client:               jobClient,
		AuditRetention:       cfg.AuditRetention,
		IdempotencyRetention: cfg.IdempotencyRetention,
		Metrics:              jobmetrics.NewMetrics(nil),
		Logger:               logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskImportProcess, Handler: handlers.HandleImportProcess},
			{Type: jobs.TaskCouponBulkGenerate, Handler: handlers.HandleCouponBulkGenerate},
			{Type: jobs.TaskDomainVerifyPoll, Handler: handlers.HandleDomainVerifyPoll},
			{Type: jobs.TaskAuditRetention, Handler: handlers.HandleAuditRetention},
			{Type: jobs.TaskIdempotencyCleanup, Handler: handlers.HandleIdempotencyCleanup},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewAuditRetentionTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
