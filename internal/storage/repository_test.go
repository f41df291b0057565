package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"momo/internal/core"
	"momo/internal/source"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "momo.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := core.ParseDateTime(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := core.Transaction{
		TransactionID: "123456",
		Type:          "Incoming Money",
		Amount:        core.Money{Cents: 500000},
		SenderName:    "John Doe",
		DateTime:      at(t, "2024-01-01 10:00:00"),
		RawMessage:    "You have received 5000 RWF from John Doe.",
	}
	id, err := repo.Upsert(ctx, in)
	if err != nil || id == 0 {
		t.Fatalf("upsert: id=%d err=%v", id, err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	in.ID = id
	if got != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, in)
	}

	if _, err := repo.GetTransaction(ctx, id+100); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertReplacesOnTransactionID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.Upsert(ctx, core.Transaction{TransactionID: "A", Type: "Bank Transfer", Amount: core.Money{Cents: 100}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, core.Transaction{TransactionID: "A", Type: "Bank Transfer", Amount: core.Money{Cents: 200}})
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if first != second {
		t.Fatalf("expected same id, got %d and %d", first, second)
	}

	// No external id: always a new row.
	a, _ := repo.Upsert(ctx, core.Transaction{Type: "Internet Bundle"})
	b, _ := repo.Upsert(ctx, core.Transaction{Type: "Internet Bundle"})
	if a == b {
		t.Fatalf("records without transaction id must not collide")
	}

	all, err := repo.ListTransactions(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d err=%v", len(all), err)
	}

	if _, err := repo.Upsert(ctx, core.Transaction{TransactionID: "B"}); !errors.Is(err, core.ErrEmptyType) {
		t.Fatalf("expected ErrEmptyType, got %v", err)
	}
}

func TestListOrderingAndTypes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed := []core.Transaction{
		{TransactionID: "1", Type: "Incoming Money", DateTime: at(t, "2024-01-01 10:00:00")},
		{TransactionID: "2", Type: "Airtime Payment", DateTime: at(t, "2024-03-01 10:00:00")},
		{TransactionID: "3", Type: "Incoming Money"},
		{TransactionID: "4", Type: "Payment Completed", DateTime: at(t, "2024-02-01 10:00:00")},
	}
	for _, s := range seed {
		if _, err := repo.Upsert(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	all, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order []string
	for _, tx := range all {
		order = append(order, tx.TransactionID)
	}
	want := []string{"2", "4", "1", "3"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	types, err := repo.ListTypes(ctx)
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if len(types) != 3 || types[0] != "Airtime Payment" || types[2] != "Payment Completed" {
		t.Fatalf("unexpected types: %v", types)
	}
}

func TestListSince(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := repo.Upsert(ctx, core.Transaction{Type: "Bank Transfer"})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := repo.ListSince(ctx, ids[1], 2)
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[3] {
		t.Fatalf("unexpected page: %+v", got)
	}

	got, _ = repo.ListSince(ctx, ids[4], 10)
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
}

func TestLogRejected(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, msg := range []string{"hello", "world"} {
		if err := repo.LogRejected(ctx, msg, "Could not categorize message"); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	n, err := repo.CountRejected(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d err=%v", n, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momo.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		repo.Close()
	}
}
