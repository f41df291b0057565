package worker

import (
	"context"
	"errors"
	"testing"

	"momo/internal/amqp"
	"momo/internal/core"
)

type sliceFeed struct {
	items []core.Transaction
	err   error
}

func (f *sliceFeed) ListSince(_ context.Context, afterID int64, limit int) ([]core.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Transaction
	for _, t := range f.items {
		if t.ID > afterID && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeLedger struct {
	rows    []core.Transaction
	calls   int
	last    int64
	failErr error
}

func (l *fakeLedger) AppendTransactions(_ context.Context, txs []core.Transaction) (string, error) {
	if l.failErr != nil {
		return "", l.failErr
	}
	l.calls++
	l.rows = append(l.rows, txs...)
	return "Transactions!A1", nil
}

func (l *fakeLedger) LastExportedID(context.Context) (int64, error) {
	return l.last, nil
}

func seed(n int) []core.Transaction {
	out := make([]core.Transaction, n)
	for i := range out {
		out[i] = core.Transaction{ID: int64(i + 1), Type: "Incoming Money"}
	}
	return out
}

func TestStartupSyncResumesFromLedger(t *testing.T) {
	feed := &sliceFeed{items: seed(7)}
	ledger := &fakeLedger{last: 3}
	w := NewExportWorker(feed, ledger, 2, nil)

	n, err := w.StartupSync(context.Background())
	if err != nil {
		t.Fatalf("startup sync: %v", err)
	}
	if n != 4 || w.LastExported() != 7 {
		t.Fatalf("exported %d rows, last=%d", n, w.LastExported())
	}
	if ledger.calls != 2 || ledger.rows[0].ID != 4 {
		t.Fatalf("unexpected ledger writes: calls=%d rows=%v", ledger.calls, ledger.rows)
	}
}

func TestHandleImportCompletedIsIdempotent(t *testing.T) {
	feed := &sliceFeed{items: seed(3)}
	ledger := &fakeLedger{}
	w := NewExportWorker(feed, ledger, 10, nil)
	msg := amqp.NewImportCompletedMessage("b1", 3, 0, 1, 3)

	for i := 0; i < 2; i++ {
		if err := w.HandleImportCompleted(context.Background(), msg); err != nil {
			t.Fatalf("handle #%d: %v", i, err)
		}
	}
	if len(ledger.rows) != 3 {
		t.Fatalf("redelivery duplicated rows: %d", len(ledger.rows))
	}
}

func TestHandleImportCompletedRetriesWhenRowsMissing(t *testing.T) {
	w := NewExportWorker(&sliceFeed{items: seed(2)}, &fakeLedger{}, 10, nil)
	msg := amqp.NewImportCompletedMessage("b1", 5, 0, 1, 5)
	if err := w.HandleImportCompleted(context.Background(), msg); err == nil {
		t.Fatal("expected error when announced rows are not stored yet")
	}
}

func TestExportPendingErrors(t *testing.T) {
	boom := errors.New("sheets quota")
	w := NewExportWorker(&sliceFeed{items: seed(2)}, &fakeLedger{failErr: boom}, 10, nil)
	if _, err := w.ExportPending(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected ledger error, got %v", err)
	}
	if w.LastExported() != 0 {
		t.Fatalf("high-water mark must not advance on failure")
	}

	feedErr := errors.New("db closed")
	w = NewExportWorker(&sliceFeed{err: feedErr}, &fakeLedger{}, 10, nil)
	if _, err := w.ExportPending(context.Background()); !errors.Is(err, feedErr) {
		t.Fatalf("expected feed error, got %v", err)
	}
}
