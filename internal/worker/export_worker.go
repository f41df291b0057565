// Package worker exports stored transactions to the spreadsheet ledger.
package worker

import (
	"context"
	"fmt"
	"sync"

	"momo/internal/amqp"
	"momo/internal/core"
	"momo/internal/log"
	"momo/internal/sheets"
)

// TransactionFeed pages through stored transactions in id order.
type TransactionFeed interface {
	ListSince(ctx context.Context, afterID int64, limit int) ([]core.Transaction, error)
}

// ExportWorker appends newly imported transactions to the ledger. It keeps
// a high-water mark so redelivered events do not duplicate rows.
type ExportWorker struct {
	feed      TransactionFeed
	ledger    sheets.Ledger
	batchSize int
	logger    *log.Logger

	mu           sync.Mutex
	lastExported int64
}

func NewExportWorker(feed TransactionFeed, ledger sheets.Ledger, batchSize int, logger *log.Logger) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		feed:      feed,
		ledger:    ledger,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// StartupSync reads the ledger's high-water mark and exports everything
// stored after it. This recovers events missed while the worker was down.
func (w *ExportWorker) StartupSync(ctx context.Context) (int, error) {
	last, err := w.ledger.LastExportedID(ctx)
	if err != nil {
		return 0, fmt.Errorf("read ledger position: %w", err)
	}
	w.mu.Lock()
	if last > w.lastExported {
		w.lastExported = last
	}
	w.mu.Unlock()

	n, err := w.ExportPending(ctx)
	if err != nil {
		return n, err
	}
	w.logger.InfoContext(ctx, "Startup export completed",
		log.FieldOperation, log.OpExport,
		log.FieldCount, n,
		"last_exported_id", w.LastExported())
	return n, nil
}

// HandleImportCompleted exports the rows announced by msg. It satisfies amqp.Handler.
func (w *ExportWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	w.logger.InfoContext(ctx, "Processing import message",
		log.FieldBatchID, msg.BatchID,
		log.FieldProcessed, msg.Processed)

	n, err := w.ExportPending(ctx)
	if err != nil {
		return fmt.Errorf("export batch %s: %w", msg.BatchID, err)
	}
	if w.LastExported() < msg.LastID {
		// The rows were announced but are not visible yet; let the broker retry.
		return fmt.Errorf("export batch %s: expected rows up to %d, ledger at %d", msg.BatchID, msg.LastID, w.LastExported())
	}
	w.logger.InfoContext(ctx, "Import exported to ledger",
		log.FieldBatchID, msg.BatchID,
		log.FieldCount, n)
	return nil
}

// ExportPending appends every stored transaction past the high-water mark,
// batchSize rows at a time, and returns how many rows were written.
func (w *ExportWorker) ExportPending(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch, err := w.feed.ListSince(ctx, w.lastExported, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("list transactions after %d: %w", w.lastExported, err)
		}
		if len(batch) == 0 {
			return total, nil
		}
		if _, err := w.ledger.AppendTransactions(ctx, batch); err != nil {
			return total, fmt.Errorf("append to ledger: %w", err)
		}
		w.lastExported = batch[len(batch)-1].ID
		total += len(batch)
		if len(batch) < w.batchSize {
			return total, nil
		}
	}
}

// LastExported returns the highest transaction id written to the ledger.
func (w *ExportWorker) LastExported() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastExported
}
