package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"stokri/internal/allocation"
	approvalpkg "stokri/internal/approval"
	assethandler "stokri/internal/asset/handler"
	assetservice "stokri/internal/asset/service"
	assetstore "stokri/internal/asset/store"
	"stokri/internal/audit"
	audithandler "stokri/internal/audit/handler"
	jwttoken "stokri/internal/jwt_token"
	"stokri/internal/notify"
	notifyhandler "stokri/internal/notify/handler"
	"stokri/internal/platform/config"
	"stokri/internal/platform/httpserver"
	"stokri/internal/platform/logger"
	"stokri/internal/platform/metrics"
	platformpostgres "stokri/internal/platform/postgres"
	platformredis "stokri/internal/platform/redis"
	requesthandler "stokri/internal/request/handler"
	requestservice "stokri/internal/request/service"
	requeststore "stokri/internal/request/store"
	transferhandler "stokri/internal/transfer/handler"
	transferservice "stokri/internal/transfer/service"
	transferstore "stokri/internal/transfer/store"
	httptransport "stokri/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		storeTx           allocation.StoreTx
		assetReader       assetservice.Reader
		requestReader     requestservice.Reader
		transferReader    transferservice.Reader
		requestApprovals  requestservice.ApprovalReader
		transferApprovals transferservice.ApprovalReader
		notifyStore       notify.Store
		auditStore        audit.Store
	)

	if cfg.PostgresURL != "" {
		db, err := platformpostgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := platformpostgres.EnsureSchema(ctx, db); err != nil {
			log.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		storeTx = newAllocationPostgresTx(db)
		assetReader = assetstore.NewPostgres(db)
		requestReader = requeststore.NewPostgres(db)
		transferReader = transferstore.NewPostgres(db)
		approvals := approvalpkg.NewPostgresStore(db)
		requestApprovals = approvals
		transferApprovals = approvals
		notifyStore = notify.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("no postgres url configured, using in-memory stores")
		assets := assetstore.NewInMemory()
		requests := requeststore.NewInMemory()
		transfers := transferstore.NewInMemory()
		approvals := approvalpkg.NewInMemoryStore()

		storeTx = allocation.NewMemoryTx(allocation.NewStores(assets, requests, transfers, approvals))
		assetReader = assets
		requestReader = requests
		transferReader = transfers
		requestApprovals = approvals
		transferApprovals = approvals
		notifyStore = notify.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.Open(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to open redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		notifyStore = notify.NewRedisStore(client)
	}

	dispatcher := notify.NewDispatcher(log, 256)
	auditPublisher := audit.NewPublisher(log, 256)
	auditWorker := audit.NewWorker(log, auditStore, auditPublisher.Inbox())

	requests := requestservice.New(storeTx, requestReader,
		requestservice.WithLogger(log),
		requestservice.WithMetrics(m),
		requestservice.WithDispatcher(dispatcher),
		requestservice.WithAuditPublisher(auditPublisher),
		requestservice.WithApprovalReader(requestApprovals),
		requestservice.WithLowStockThreshold(cfg.LowStockThreshold),
	)
	transfers := transferservice.New(storeTx, transferReader,
		transferservice.WithLogger(log),
		transferservice.WithMetrics(m),
		transferservice.WithDispatcher(dispatcher),
		transferservice.WithAuditPublisher(auditPublisher),
		transferservice.WithApprovalReader(transferApprovals),
		transferservice.WithLowStockThreshold(cfg.LowStockThreshold),
	)
	assets := assetservice.New(storeTx, assetReader,
		assetservice.WithLogger(log),
		assetservice.WithAuditPublisher(auditPublisher),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "stokri", "stokri-api")
	jwtValidator := jwttoken.NewMiddlewareAdapter(jwtService)

	router := httptransport.NewRouter(
		assethandler.New(assets, log, m, jwtValidator),
		requesthandler.New(requests, log, m, jwtValidator),
		transferhandler.New(transfers, log, m, jwtValidator),
		notifyhandler.New(notifyStore, log, m, jwtValidator),
		audithandler.New(auditStore, log, m, jwtValidator),
	)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting stokri", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := dispatcher.Run(groupCtx, notifyStore)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
