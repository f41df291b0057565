package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"momo/internal/amqp"
	"momo/internal/cache"
	"momo/internal/core"
	"momo/internal/log"
	"momo/internal/source"
)

const snapshotKey = "transactions"

// Snapshot is the full transaction set as loaded from the source.
type Snapshot struct {
	Transactions []core.Transaction
	Types        []string
	LoadedAt     time.Time
}

// DashboardView is everything the dashboard renders for one filter.
type DashboardView struct {
	Filter    core.Filter
	Summary   core.Summary
	Rows      []core.Row
	Charts    core.Charts
	Types     []string // filter options, from the full set
	Visible   int
	Total     int
	Truncated bool // more visible records than table rows
}

// Stats is the per-type and per-month breakdown of the full set.
type Stats struct {
	TypeStats    []core.TypeStat
	MonthlyStats []core.MonthStat
}

// DashboardService loads transactions once, caches them and derives every
// dashboard projection from the cached set.
type DashboardService struct {
	reader      source.TransactionReader
	cache       cache.Cache[*Snapshot]
	group       singleflight.Group
	logger      *log.Logger
	now         func() time.Time
	loadTimeout time.Duration

	// mu orders cache writes against invalidation; gen counts invalidations
	// so a fetch started before one never repopulates the cache.
	mu  sync.Mutex
	gen uint64
}

// defaultLoadTimeout bounds a shared fetch, which outlives the caller that
// started it.
const defaultLoadTimeout = 30 * time.Second

func NewDashboardService(reader source.TransactionReader, c cache.Cache[*Snapshot], logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	if c == nil {
		c = cache.NewLRUCache[*Snapshot](1, time.Minute)
	}
	return &DashboardService{
		reader:      reader,
		cache:       c,
		logger:      logger.WithComponent(log.ComponentDashboard),
		now:         time.Now,
		loadTimeout: defaultLoadTimeout,
	}
}

// Load returns the cached snapshot, fetching transactions and types
// concurrently on a miss. Concurrent misses share one fetch; a caller that
// gives up does not cancel it for the others.
func (s *DashboardService) Load(ctx context.Context) (*Snapshot, error) {
	if snap, ok := s.cache.Get(snapshotKey); ok {
		return snap, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(snapshotKey, func() (any, error) {
		return s.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.logger.ErrorContext(ctx, "Failed to load transactions",
				log.FieldOperation, log.OpLoad,
				log.FieldError, res.Err)
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (s *DashboardService) fetch(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	var (
		txs   []core.Transaction
		types []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.reader.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		types, err = s.reader.ListTypes(gctx)
		if err != nil {
			return fmt.Errorf("list transaction types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(types) == 0 {
		types = core.DistinctTypes(txs)
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	snap := &Snapshot{Transactions: txs, Types: types, LoadedAt: s.now()}

	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.cache.Set(snapshotKey, snap)
	}
	s.mu.Unlock()

	if !current {
		s.logger.DebugContext(ctx, "Snapshot invalidated during load, not cached",
			log.FieldOperation, log.OpLoad)
	}
	s.logger.InfoContext(ctx, "Transactions loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldCount, len(txs))
	return snap, nil
}

// View applies f to the full set and aggregates the visible subset.
func (s *DashboardService) View(ctx context.Context, f core.Filter, now time.Time) (DashboardView, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return DashboardView{}, err
	}
	visible := f.Apply(snap.Transactions)
	return DashboardView{
		Filter:    f,
		Summary:   core.Summarize(visible, now),
		Rows:      core.TablePage(visible),
		Charts:    core.BuildCharts(visible),
		Types:     snap.Types,
		Visible:   len(visible),
		Total:     len(snap.Transactions),
		Truncated: len(visible) > core.MaxTableRows,
	}, nil
}

// Transactions returns the records matching f, in source order.
func (s *DashboardService) Transactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(snap.Transactions), nil
}

// Charts returns the chart series for the records matching f.
func (s *DashboardService) Charts(ctx context.Context, f core.Filter) (core.Charts, error) {
	txs, err := s.Transactions(ctx, f)
	if err != nil {
		return core.Charts{}, err
	}
	return core.BuildCharts(txs), nil
}

func (s *DashboardService) Types(ctx context.Context) ([]string, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Types, nil
}

// Stats aggregates the full set by type and by month.
func (s *DashboardService) Stats(ctx context.Context) (Stats, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TypeStats:    core.TypeStats(snap.Transactions),
		MonthlyStats: core.MonthlyStats(snap.Transactions),
	}, nil
}

// Get finds a record by id in the full set, whatever the current filter.
func (s *DashboardService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range snap.Transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, source.ErrNotFound
}

// Invalidate drops the cached snapshot; the next call reloads. A load
// already in flight still answers its callers but is not cached.
func (s *DashboardService) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache.Delete(snapshotKey)
	s.mu.Unlock()
	s.group.Forget(snapshotKey)
}

// HandleImportCompleted reacts to an import event by invalidating the cache.
// It satisfies amqp.Handler.
func (s *DashboardService) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	s.Invalidate()
	s.logger.InfoContext(ctx, "Snapshot invalidated by import",
		log.FieldBatchID, msg.BatchID,
		log.FieldProcessed, msg.Processed)
	return nil
}
