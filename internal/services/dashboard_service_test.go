package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"momo/internal/amqp"
	"momo/internal/cache"
	"momo/internal/core"
	"momo/internal/source"
	"momo/internal/source/memory"
)

type countingReader struct {
	source.TransactionReader
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (r *countingReader) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	r.calls.Add(1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.TransactionReader.ListTransactions(ctx)
}

// gatedReader reads the underlying store, then holds its first call until
// release is closed. It honours cancellation after the hold.
type gatedReader struct {
	source.TransactionReader
	calls   atomic.Int32
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedReader(r source.TransactionReader) *gatedReader {
	return &gatedReader{TransactionReader: r, entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedReader) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	r.calls.Add(1)
	txs, err := r.TransactionReader.ListTransactions(ctx)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return txs, err
}

func newDashboard(t *testing.T, r source.TransactionReader) *DashboardService {
	t.Helper()
	return NewDashboardService(r, cache.NewLRUCache[*Snapshot](1, time.Hour), nil)
}

func TestDashboardViewAggregatesVisibleSubset(t *testing.T) {
	svc := newDashboard(t, memory.NewSample())
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	v, err := svc.View(context.Background(), core.Filter{}, now)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Summary.Count != 3 || v.Summary.Volume.Cents != 950000 || v.Summary.ThisMonth != 3 {
		t.Fatalf("unexpected summary: %+v", v.Summary)
	}
	if len(v.Rows) != 3 || v.Total != 3 || v.Truncated {
		t.Fatalf("unexpected table: rows=%d total=%d", len(v.Rows), v.Total)
	}
	if len(v.Types) != 3 {
		t.Fatalf("unexpected types: %v", v.Types)
	}

	v, err = svc.View(context.Background(), core.Filter{Search: "jane"}, now)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Visible != 1 || v.Summary.Volume.Cents != 150000 || len(v.Charts.Types.Labels) != 1 {
		t.Fatalf("filtered view mismatch: %+v", v.Summary)
	}
	if len(v.Types) != 3 {
		t.Fatalf("filter options must come from the full set: %v", v.Types)
	}
}

func TestDashboardCachesAndInvalidates(t *testing.T) {
	r := &countingReader{TransactionReader: memory.NewSample()}
	svc := newDashboard(t, r)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Load(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}

	if err := svc.HandleImportCompleted(ctx, amqp.NewImportCompletedMessage("b", 1, 0, 4, 4)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := r.calls.Load(); got != 2 {
		t.Fatalf("expected reload after invalidate, got %d fetches", got)
	}
}

func TestDashboardConcurrentLoadsShareFetch(t *testing.T) {
	r := &countingReader{TransactionReader: memory.NewSample(), delay: 50 * time.Millisecond}
	svc := newDashboard(t, r)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Load(context.Background()); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("expected a single fetch, got %d", got)
	}
}

func TestDashboardLoadError(t *testing.T) {
	boom := errors.New("api down")
	r := &countingReader{TransactionReader: memory.NewSample(), err: boom}
	svc := newDashboard(t, r)

	if _, err := svc.View(context.Background(), core.Filter{}, time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
	// Failures are not cached.
	r.err = nil
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}

func TestDashboardGetUsesFullSet(t *testing.T) {
	svc := newDashboard(t, memory.NewSample())
	ctx := context.Background()

	tx, err := svc.Get(ctx, 3)
	if err != nil || tx.TransactionID != "TXN345678" {
		t.Fatalf("unexpected get: %+v err=%v", tx, err)
	}
	if _, err := svc.Get(ctx, 99); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboardStatsAndTransactions(t *testing.T) {
	svc := newDashboard(t, memory.NewSample())
	ctx := context.Background()

	st, err := svc.Stats(ctx)
	if err != nil || len(st.TypeStats) != 3 || len(st.MonthlyStats) != 1 {
		t.Fatalf("unexpected stats: %+v err=%v", st, err)
	}
	txs, err := svc.Transactions(ctx, core.Filter{Type: "Incoming Money"})
	if err != nil || len(txs) != 1 {
		t.Fatalf("unexpected transactions: %d err=%v", len(txs), err)
	}
	charts, err := svc.Charts(ctx, core.Filter{})
	if err != nil || len(charts.Monthly.Labels) != 1 {
		t.Fatalf("unexpected charts: %+v err=%v", charts, err)
	}
}

func TestDashboardInvalidateDuringLoad(t *testing.T) {
	store := memory.NewSample()
	r := newGatedReader(store)
	svc := newDashboard(t, r)
	ctx := context.Background()

	first := make(chan *Snapshot, 1)
	go func() {
		snap, err := svc.Load(ctx)
		if err != nil {
			t.Errorf("load: %v", err)
		}
		first <- snap
	}()
	<-r.entered

	if _, err := store.Upsert(ctx, core.Transaction{TransactionID: "TXN999", Type: "Bank Transfer", Amount: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := svc.HandleImportCompleted(ctx, amqp.NewImportCompletedMessage("b", 1, 0, 4, 4)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	close(r.release)

	if snap := <-first; snap != nil && len(snap.Transactions) != 3 {
		t.Fatalf("in-flight load returned %d records, want 3", len(snap.Transactions))
	}

	snap, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(snap.Transactions); got != 4 {
		t.Fatalf("snapshot after import has %d records, want 4", got)
	}
}

func TestDashboardLoadSurvivesCallerCancel(t *testing.T) {
	r := newGatedReader(memory.NewSample())
	svc := newDashboard(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := svc.Load(ctx)
		errc <- err
	}()
	<-r.entered

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller got %v, want context.Canceled", err)
	}
	close(r.release)

	snap, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load after cancelled caller: %v", err)
	}
	if len(snap.Transactions) != 3 {
		t.Fatalf("got %d records, want 3", len(snap.Transactions))
	}
	if got := r.calls.Load(); got != 1 {
		t.Fatalf("shared fetch was abandoned: %d fetches, want 1", got)
	}
}
