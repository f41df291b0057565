package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"momo/internal/core"
	"momo/internal/source"
)

func TestSampleStoreListAndTypes(t *testing.T) {
	s := NewSample()
	items, err := s.ListTransactions(context.Background())
	if err != nil || len(items) != 3 {
		t.Fatalf("unexpected list: %d items, err=%v", len(items), err)
	}
	if items[0].TransactionID != "TXN123456" || items[0].Amount.Cents != 500000 {
		t.Fatalf("unexpected first record: %+v", items[0])
	}

	types, err := s.ListTypes(context.Background())
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	want := []string{"Airtime Payment", "Incoming Money", "Payment Completed"}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types = %v, want %v", types, want)
		}
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := NewSample()
	items, _ := s.ListTransactions(context.Background())
	items[0].Type = "changed"
	again, _ := s.ListTransactions(context.Background())
	if again[0].Type != "Incoming Money" {
		t.Fatalf("store mutated through returned slice")
	}
}

func TestGetTransaction(t *testing.T) {
	s := NewSample()
	tx, err := s.GetTransaction(context.Background(), 2)
	if err != nil || tx.ReceiverName != "Jane Smith" {
		t.Fatalf("unexpected get: %+v err=%v", tx, err)
	}
	if _, err := s.GetTransaction(context.Background(), 42); !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertReplacesByTransactionID(t *testing.T) {
	ctx := context.Background()
	s := NewSample()

	id, err := s.Upsert(ctx, core.Transaction{TransactionID: "TXN789012", Type: "Payment Completed", Amount: core.Money{Cents: 1}})
	if err != nil || id != 2 {
		t.Fatalf("expected replace of id 2, got id=%d err=%v", id, err)
	}
	items, _ := s.ListTransactions(ctx)
	if len(items) != 3 || items[1].Amount.Cents != 1 {
		t.Fatalf("replace failed: %+v", items)
	}

	id, err = s.Upsert(ctx, core.Transaction{TransactionID: "NEW1", Type: "Bank Transfer"})
	if err != nil || id != 4 {
		t.Fatalf("expected new id 4, got id=%d err=%v", id, err)
	}

	if _, err := s.Upsert(ctx, core.Transaction{TransactionID: "BAD"}); !errors.Is(err, core.ErrEmptyType) {
		t.Fatalf("expected ErrEmptyType, got %v", err)
	}
}

func TestLogRejected(t *testing.T) {
	s := New(nil)
	if err := s.LogRejected(context.Background(), "hello", "Could not categorize message"); err != nil {
		t.Fatalf("log: %v", err)
	}
	r := s.Rejected()
	if len(r) != 1 || r[0].Raw != "hello" {
		t.Fatalf("unexpected rejected: %+v", r)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file falls back to the sample.
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	items, _ := s.ListTransactions(context.Background())
	if len(items) != 3 {
		t.Fatalf("expected sample fallback, got %d", len(items))
	}

	path := filepath.Join(dir, "seed.json")
	content := `[
		{"id": 10, "transaction_id": "A1", "transaction_type": "Bank Transfer", "amount": 2500, "date_time": "2024-03-01 09:00:00"},
		{"transaction_type": "Internet Bundle", "amount": 1000, "date_time": null}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	items, _ = s.ListTransactions(context.Background())
	if len(items) != 2 {
		t.Fatalf("expected 2 seeded records, got %d", len(items))
	}
	if items[0].ID != 10 || items[1].ID != 11 {
		t.Fatalf("unexpected ids: %d, %d", items[0].ID, items[1].ID)
	}
	if items[1].HasDateTime() {
		t.Fatalf("expected missing date on second record")
	}
}

func TestNewFromFileRejectsBadSeed(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad date", `[{"id":1,"transaction_type":"X","date_time":"garbage"}]`},
		{"not json", `transactions`},
		{"wrong shape", `{"id":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "seed.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			s, err := NewFromFile(path)
			if err == nil {
				items, _ := s.ListTransactions(context.Background())
				t.Fatalf("expected error, loaded %d records", len(items))
			}
		})
	}

	// A directory exists but cannot be read as a file.
	if _, err := NewFromFile(dir); err == nil {
		t.Fatal("expected error reading a directory")
	}
}

func TestNewFromFileEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	if items, _ := s.ListTransactions(context.Background()); len(items) != 0 {
		t.Fatalf("expected an empty store, got %d records", len(items))
	}
}
