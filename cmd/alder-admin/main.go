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

	"github.com/aldercommerce/alder-admin/internal/app"
	"github.com/aldercommerce/alder-admin/internal/approvals"
	"github.com/aldercommerce/alder-admin/internal/audit"
	audithttp "github.com/aldercommerce/alder-admin/internal/audit/http"
	"github.com/aldercommerce/alder-admin/internal/auth"
	"github.com/aldercommerce/alder-admin/internal/campaigns"
	"github.com/aldercommerce/alder-admin/internal/coupons"
	"github.com/aldercommerce/alder-admin/internal/domains"
	"github.com/aldercommerce/alder-admin/internal/imports"
	"github.com/aldercommerce/alder-admin/internal/observability"
	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/cache"
	"github.com/aldercommerce/alder-admin/internal/platform/db"
	"github.com/aldercommerce/alder-admin/internal/platform/objstore"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
	"github.com/aldercommerce/alder-admin/internal/staff"
	"github.com/aldercommerce/alder-admin/internal/taxes"
	"github.com/aldercommerce/alder-admin/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "alder_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	fetcher := permissions.NewStaffFetcher(cfg.StaffServiceURL, cfg.UpstreamTimeout)
	resolver := permissions.NewResolver(fetcher, permissions.NewCache(cfg.PermissionCacheTTL), logger)
	gate := permissions.Middleware{Resolver: resolver, Logger: logger}

	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, tokenService, sessionManager, csrfManager, resolver)

	recorder := audit.NewRecorder(dbpool)
	readCache := upstream.NewReadCache(redisClient, cfg.UpstreamCacheTTL)

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

	campaignClient := upstream.New("ad-manager", cfg.AdManagerServiceURL, cfg.UpstreamTimeout)
	campaignService := campaigns.NewService(campaignClient, readCache, recorder)
	campaignHandler := campaigns.NewHandler(logger, campaignService, idempotencyStore)

	couponClient := upstream.New("coupon", cfg.CouponServiceURL, cfg.UpstreamTimeout)
	couponService := coupons.NewService(couponClient, readCache, recorder, jobClient)
	couponHandler := coupons.NewHandler(logger, couponService, idempotencyStore)

	taxClient := upstream.New("tax", cfg.TaxServiceURL, cfg.UpstreamTimeout)
	taxService := taxes.NewService(taxClient, readCache, recorder)
	taxHandler := taxes.NewHandler(logger, taxService)

	domainClient := upstream.New("custom-domain", cfg.DomainServiceURL, cfg.UpstreamTimeout)
	domainService := domains.NewService(domainClient, readCache, recorder, jobClient)
	domainHandler := domains.NewHandler(logger, domainService)

	approvalRepo := approvals.NewPGRepository(dbpool)
	approvalService := approvals.NewService(approvalRepo, recorder, resolver, logger)
	approvalHandler := approvals.NewHandler(logger, approvalService)

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
	importRepo := imports.NewPGRepository(dbpool)
	importService := imports.NewService(importRepo, store, jobClient, recorder)
	importHandler := imports.NewHandler(logger, importService, idempotencyStore)

	auditService := audit.NewService(audit.NewRepository(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService, audit.NewExporter())

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		Tokens:          tokenService,
		Gate:            gate,
		AuthHandler:     authHandler,
		StaffHandler:    staff.NewHandler(logger, resolver),
		CampaignHandler: campaignHandler,
		CouponHandler:   couponHandler,
		TaxHandler:      taxHandler,
		DomainHandler:   domainHandler,
		ApprovalHandler: approvalHandler,
		ImportHandler:   importHandler,
		AuditHandler:    auditHandler,
		JobHandler:      jobHandler,
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
