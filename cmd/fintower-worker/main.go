package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintower/internal/amqp"
	"fintower/internal/config"
	"fintower/internal/sheets"
	gsheet "fintower/internal/sheets/google"
	"fintower/internal/sheets/memory"
	"fintower/internal/storage"
	"fintower/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting fintower-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var (
		appender sheets.TransactionAppender
		remover  sheets.TransactionRemover
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender, remover = client, client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mem := memory.New()
		appender, remover = mem, mem
		logger.Info("Google Sheets disabled - exporting to in-memory appender")
	}

	exportWorker := worker.NewExportWorker(repo, appender, remover, cfg.SyncBatchSize)

	// On startup, drain anything the previous run left pending.
	logger.Info("Performing startup export check...")
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeRecorded(gctx, func(msg *amqp.TransactionRecordedMessage) error {
				return exportWorker.HandleRecordedMessage(gctx, msg)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		})
		g.Go(func() error {
			err := amqpClient.ConsumeDeleted(gctx, func(msg *amqp.TransactionDeletedMessage) error {
				return exportWorker.HandleDeletedMessage(gctx, msg)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic export only")
	}

	// Periodic sweep picks up anything a missed message left behind.
	g.Go(func() error {
		return exportWorker.RunPeriodic(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
