// One-shot Telegram drain: pull every pending bot message, record each
// line and exit. Useful from cron or for manual catch-up.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintower/internal/classifier"
	"fintower/internal/config"
	"fintower/internal/services"
	"fintower/internal/storage"
	"fintower/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is required")
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

	gemini, err := classifier.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize Gemini classifier", "error", err)
		os.Exit(1)
	}

	recorder := services.NewRecorderService(gemini, repo, nil, cfg.BudgetParams(), cfg.GoldPricePerGram)

	tg, err := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to initialize Telegram client", "error", err)
		os.Exit(1)
	}

	report, err := telegram.NewSyncer(tg, recorder, repo).Sync(ctx)
	if err != nil {
		logger.Error("Telegram sync failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Telegram sync complete",
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed)
	for _, line := range report.Lines {
		logger.Info("Result", "line", line)
	}
}
