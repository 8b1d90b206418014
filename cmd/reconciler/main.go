package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/careledger/careledger/internal/api"
	"github.com/careledger/careledger/internal/api/service"
	"github.com/careledger/careledger/internal/config"
	"github.com/careledger/careledger/internal/data/mongo"
	"github.com/careledger/careledger/internal/data/postgres"
	"github.com/careledger/careledger/internal/logger"
	"github.com/careledger/careledger/internal/platform/messaging/producers"
	"github.com/careledger/careledger/internal/platform/persistence"
	"github.com/careledger/careledger/internal/reconciler/batch"
	"github.com/careledger/careledger/internal/reconciler/corrector"
	"github.com/careledger/careledger/internal/reconciler/detector"
	"github.com/careledger/careledger/internal/reconciler/feeconfig"
	"github.com/careledger/careledger/internal/reconciler/monthly"
	"github.com/panjf2000/ants/v2"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("reconciler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for the audit trail
	auditProducer, err := producers.NewAuditEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit event producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	matchRepo := postgres.NewMatchRepository(log, postgresDB)
	chargeRepo := postgres.NewChargeRepository(log, postgresDB)
	feeConfigRepo := postgres.NewFeeConfigurationRepository(log, postgresDB)
	runReportRepo := mongo.NewRunReportRepository(log, mongoDB.Database())

	// Initialize the correction worker pool
	workerPool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize the reconciliation engine
	feeConfigService := feeconfig.NewService(feeConfigRepo, feeconfig.NewCache(cfg.FeeCache.TTL), log)
	feeDetector := detector.NewDetector(feeConfigService, log)
	applier := corrector.NewApplier(postgresDB, transactionRepo, matchRepo, chargeRepo, auditProducer, log)
	batchRunner := batch.NewRunner(matchRepo, feeDetector, applier, workerPool, log)
	aggregator := monthly.NewAggregator(transactionRepo, chargeRepo, log)

	// Initialize services
	reconciliationService := service.NewReconciliationService(log, batchRunner, aggregator, feeDetector, runReportRepo)

	// Initialize REST server
	server := api.NewServer(log, cfg, feeConfigService, reconciliationService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new runs start
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain in-flight corrections before closing their stores
	workerPool.Release()

	postgresDB.Close()

	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing audit event producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
