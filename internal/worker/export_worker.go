package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendyze/internal/amqp"
	"spendyze/internal/sheets"
	"spendyze/internal/storage"
)

// TransactionSource is the storage the worker reads rows from and records
// export state in.
type TransactionSource interface {
	GetTransaction(ctx context.Context, id int64) (storage.StoredTransaction, error)
	PendingExports(ctx context.Context, limit int) ([]int64, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// ExportWorker copies recorded transactions from SQLite to a spreadsheet.
type ExportWorker struct {
	store     TransactionSource
	exporter  sheets.TransactionExporter
	batchSize int
}

func NewExportWorker(store TransactionSource, exporter sheets.TransactionExporter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{store: store, exporter: exporter, batchSize: batchSize}
}

// HandleMessage exports the transaction named by msg. A transaction that no
// longer exists is acknowledged without exporting.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing transaction message", "id", msg.ID, "user_id", msg.UserID)
	return w.export(ctx, msg.ID)
}

func (w *ExportWorker) export(ctx context.Context, id int64) error {
	stored, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction not found, skipping export", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.exporter.Export(ctx, sheets.ExportRow{UserID: stored.UserID, Record: stored.Record})
	if err != nil {
		if merr := w.store.MarkExportError(ctx, id); merr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", merr)
		}
		return fmt.Errorf("export transaction %d: %w", id, err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction exported", "id", id, "sheets_ref", ref)
	return nil
}

// ProcessPending exports one batch of transactions still marked pending.
// It covers events lost while the broker was unreachable.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	ids, err := w.store.PendingExports(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending exports: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(ids))
	exported := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.export(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Pending export failed", "id", id, "error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

// RunPendingLoop calls ProcessPending every interval until ctx is done.
func (w *ExportWorker) RunPendingLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Pending export sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
