package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/storage"
	"fintrack/internal/wallet"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite repository (ledger + wallet stores)
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize AMQP client for consuming recompute requests
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := wallet.NewEngine(repo, repo)
	walletReads := wallet.NewService(repo)
	recomputeWorker := worker.NewRecomputeWorker(engine, repo, walletReads, cfg.ReconcileParallelism)

	// On startup, sweep every owner once to correct wallets that went stale
	// while the worker was down
	logger.Info("Performing startup reconciliation sweep...")
	if err := recomputeWorker.ReconcileAll(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
		// Don't exit - continue with normal operation
	}

	// Start consuming queued recompute requests
	go func() {
		if err := amqpClient.ConsumeRecompute(ctx, recomputeWorker.HandleRecomputeMessage); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Setup periodic reconciliation for wallets whose trigger was lost
	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := recomputeWorker.ReconcileAll(ctx); err != nil {
					logger.Error("Periodic reconciliation failed", "error", err)
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	logger.Info("fintrack-worker stopped")
}
