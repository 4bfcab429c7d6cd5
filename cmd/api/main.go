package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sentinelops/triage/internal/api/handlers"
	"github.com/sentinelops/triage/internal/api/router"
	"github.com/sentinelops/triage/internal/breaker"
	"github.com/sentinelops/triage/internal/config"
	"github.com/sentinelops/triage/internal/detector"
	"github.com/sentinelops/triage/internal/engine"
	"github.com/sentinelops/triage/internal/executor"
	"github.com/sentinelops/triage/internal/gate"
	"github.com/sentinelops/triage/internal/pipeline"
	"github.com/sentinelops/triage/internal/pkg/logger"
	"github.com/sentinelops/triage/internal/pkg/validator"
	"github.com/sentinelops/triage/internal/reasoning"
	"github.com/sentinelops/triage/internal/repository/sqlstore"
	"github.com/sentinelops/triage/internal/services"
	"github.com/sentinelops/triage/internal/worker"
	"github.com/sentinelops/triage/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	// Engine thresholds are hot-reloadable; the store keeps the last good
	// snapshot when a reload fails validation
	store, err := config.LoadEngine(cfg.Engine.Path, log)
	if err != nil {
		log.Fatalf("Failed to load engine config: %v", err)
	}
	store.Watch()

	db, err := sqlstore.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := sqlstore.RunMigrations(db, migrations.GetFS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	alertRepo := sqlstore.NewAlertRepository(db)
	actionRepo := sqlstore.NewActionRepository(db)
	auditRepo := sqlstore.NewAuditRepository(db)
	analystRepo := sqlstore.NewAnalystRepository(db)
	restoreRepo := sqlstore.NewRestoreRepository(db)

	// Decision plumbing
	brk := breaker.New(func() config.BreakerConfig {
		return store.Snapshot().Breaker
	}, log)
	limiter := gate.NewActionRateLimiter()
	safetyGate := gate.New(brk, limiter)

	auditSvc := services.NewAuditService(auditRepo, log)

	execCfg := func() config.ExecutorConfig {
		return store.Snapshot().Executor
	}
	exec := executor.New(
		executor.NewLogEnforcer(log),
		actionRepo, restoreRepo, auditSvc, brk, limiter, execCfg, log)
	defer exec.Stop()

	dcfg := store.Snapshot().Detector
	window, err := detector.NewWindow(dcfg.EventWindow, dcfg.MaxTrackedEntities)
	if err != nil {
		log.Fatalf("Failed to create event window: %v", err)
	}

	investigator := reasoning.NewOpenAIInvestigator(cfg.Reasoning, log)

	pipe := pipeline.New(
		window,
		detector.NewRegistry(log),
		engine.NewAggregator(),
		safetyGate,
		exec,
		investigator,
		alertRepo,
		actionRepo,
		auditSvc,
		store,
		log,
	)
	defer pipe.Stop()

	// Services
	alertSvc := services.NewAlertService(alertRepo, brk, log)
	actionSvc := services.NewActionService(actionRepo, exec, log)
	analystSvc := services.NewAnalystService(analystRepo, cfg.Auth, log)

	// Maintenance jobs
	sweeper, err := worker.NewSweeper(exec, restoreRepo, execCfg, log)
	if err != nil {
		log.Fatalf("Failed to create sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// HTTP layer
	val := validator.New()
	h := &router.Handlers{
		Health:  handlers.NewHealthHandler(db, log),
		Auth:    handlers.NewAuthHandler(analystSvc, log, val),
		Event:   handlers.NewEventHandler(pipe, log, val),
		Alert:   handlers.NewAlertHandler(alertSvc, log, val),
		Action:  handlers.NewActionHandler(actionSvc, log, val),
		Breaker: handlers.NewBreakerHandler(brk, log, val),
		Audit:   handlers.NewAuditHandler(auditSvc, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr": srv.Addr,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr(err, "Graceful shutdown failed")
	}

	// Give in-flight evaluations a moment to settle before deferred stops
	time.Sleep(100 * time.Millisecond)
}
