// Package worker mirrors recorded transactions from SQLite into the
// export spreadsheet, driven by AMQP events with a periodic catch-up.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintower/internal/amqp"
	"fintower/internal/core"
	"fintower/internal/sheets"
	"fintower/internal/storage"
)

// ExportWorker syncs transactions to the spreadsheet.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.TransactionAppender
	remover   sheets.TransactionRemover
	batchSize int
}

// NewExportWorker builds the worker. remover may be nil; delete events
// are then acknowledged without touching the sheet.
func NewExportWorker(storage *storage.SQLiteRepository, appender sheets.TransactionAppender, remover sheets.TransactionRemover, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleRecordedMessage exports the transaction named by one AMQP event.
// A row already deleted by the time the event arrives is dropped silently.
func (w *ExportWorker) HandleRecordedMessage(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded message", "id", msg.ID)

	tx, err := w.storage.Get(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.export(ctx, tx)
}

// HandleDeletedMessage reconciles a ledger deletion into the sheet by
// removing the matching row. The row data rides in the message since the
// database copy is already gone.
func (w *ExportWorker) HandleDeletedMessage(ctx context.Context, msg *amqp.TransactionDeletedMessage) error {
	slog.InfoContext(ctx, "Processing deleted message", "id", msg.ID)

	if w.remover == nil {
		slog.WarnContext(ctx, "No sheet remover configured, skipping row removal", "id", msg.ID)
		return nil
	}

	d, err := core.ParseDate(msg.Date)
	if err != nil {
		return fmt.Errorf("corrupt date in delete message %q: %w", msg.Date, err)
	}

	tx := core.Transaction{
		ID:          msg.ID,
		Date:        d,
		Amount:      core.Money{Cents: msg.AmountCents},
		Description: msg.Description,
		Category:    core.Category(msg.Category),
	}
	if err := w.remover.Remove(ctx, tx); err != nil {
		return fmt.Errorf("remove sheet row: %w", err)
	}

	slog.InfoContext(ctx, "Sheet row reconciled for deleted transaction", "id", msg.ID)
	return nil
}

// ProcessPending exports transactions that never made it to the sheet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, tx := range pending {
		if err := w.export(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", tx.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck drains a larger pending batch once at worker startup so
// downtime does not leave rows behind.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.PendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, tx := range pending {
		if err := w.export(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export during startup", "id", tx.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

// RunPeriodic drives ProcessPending on an interval until ctx is done.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export pass failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, tx core.Transaction) error {
	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkExported(ctx, tx.ID); err != nil {
		// The append worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", tx.ID,
		"sheets_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)

	return nil
}
