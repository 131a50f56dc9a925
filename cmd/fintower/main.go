package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintower/internal/amqp"
	"fintower/internal/classifier"
	"fintower/internal/config"
	apphttp "fintower/internal/http"
	"fintower/internal/ledger"
	"fintower/internal/ledger/memory"
	"fintower/internal/services"
	"fintower/internal/storage"
	"fintower/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting fintower")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Choose data backend (default: sqlite).
	var store ledger.Store
	switch cfg.DataBackend {
	case "memory":
		store = memory.New()
		logger.Info("Initialized memory backend")
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	}

	gemini, err := classifier.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize Gemini classifier", "error", err)
		os.Exit(1)
	}

	// Export events are optional: without a broker the tracker still
	// records everything, it just never feeds the sheet worker.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	params := cfg.BudgetParams()
	recorder := services.NewRecorderService(gemini, store, events, params, cfg.GoldPricePerGram)
	budget := services.NewBudgetService(store, params)
	networth := services.NewNetWorthService(store, params, cfg.Balances())
	confirmations := services.NewConfirmationService(store, params)

	var syncer *telegram.Syncer
	if cfg.TelegramToken != "" {
		tg, err := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramToken)
		if err != nil {
			logger.Error("Failed to initialize Telegram client", "error", err)
			os.Exit(1)
		}
		syncer = telegram.NewSyncer(tg, recorder, store)
		logger.Info("Telegram polling enabled", "interval", cfg.TelegramPollInterval.String())
	} else {
		logger.Info("Telegram disabled - no TELEGRAM_BOT_TOKEN provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, recorder, budget, networth, confirmations, syncer)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintower server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if syncer != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.TelegramPollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					report, err := syncer.Sync(gctx)
					if err != nil {
						logger.Error("Telegram poll failed", "error", err)
						continue
					}
					if report.Processed > 0 || report.Failed > 0 {
						logger.Info("Telegram poll complete",
							"processed", report.Processed,
							"skipped", report.Skipped,
							"failed", report.Failed)
					}
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
