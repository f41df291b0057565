package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"momo/internal/core"
	"momo/internal/source"
)

var (
	_ source.TransactionReader = (*Store)(nil)
	_ source.TransactionGetter = (*Store)(nil)
	_ source.TransactionWriter = (*Store)(nil)
	_ source.RejectLogger      = (*Store)(nil)
)

// Rejected is a message the importer could not categorize.
type Rejected struct {
	Raw    string
	Reason string
}

type Store struct {
	mu       sync.Mutex
	items    []core.Transaction
	rejected []Rejected
	nextID   int64
}

func New(items []core.Transaction) *Store {
	s := &Store{nextID: 1}
	for _, t := range items {
		s.insert(t)
	}
	return s
}

// NewSample returns a store holding the three demo records.
func NewSample() *Store {
	return New(Sample())
}

// NewFromFile seeds the store from a JSON array of transactions. Only a
// blank path or a missing file falls back to the demo records; a file that
// cannot be read or decoded is an error.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return NewSample(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSample(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var items []core.Transaction
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return New(items), nil
}

// Sample returns the demo records shown when no real data source is configured.
func Sample() []core.Transaction {
	at := func(s string) time.Time {
		ts, _ := time.Parse(core.DateTimeLayout, s)
		return ts
	}
	return []core.Transaction{
		{
			ID:            1,
			TransactionID: "TXN123456",
			Type:          "Incoming Money",
			Amount:        core.Money{Cents: 500000},
			SenderName:    "John Doe",
			DateTime:      at("2024-01-01 10:00:00"),
			RawMessage:    "You have received 5000 RWF from John Doe. Transaction ID: 123456. Date: 2024-01-01 10:00:00.",
		},
		{
			ID:            2,
			TransactionID: "TXN789012",
			Type:          "Payment Completed",
			Amount:        core.Money{Cents: 150000},
			Fee:           core.Money{Cents: 5000},
			ReceiverName:  "Jane Smith",
			DateTime:      at("2024-01-02 14:30:00"),
			RawMessage:    "TxId: 789012. Your payment of 1500 RWF to Jane Smith has been completed. Date: 2024-01-02 14:30:00.",
		},
		{
			ID:            3,
			TransactionID: "TXN345678",
			Type:          "Airtime Payment",
			Amount:        core.Money{Cents: 300000},
			Fee:           core.Money{Cents: 5000},
			ReceiverName:  "Airtime",
			DateTime:      at("2024-01-03 16:00:00"),
			RawMessage:    "*162*TxId:345678*S*Your payment of 3000 RWF to Airtime has been completed. Fee: 50 RWF. Date: 2024-01-03 16:00:00.",
		},
	}
}

// ListTransactions returns a copy of the stored records in insertion order.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...), nil
}

// ListTypes returns the sorted distinct types.
func (s *Store) ListTypes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.DistinctTypes(s.items), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, source.ErrNotFound
}

// Upsert stores t, replacing a record with the same external id.
func (s *Store) Upsert(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.TransactionID != "" {
		for i, existing := range s.items {
			if existing.TransactionID == t.TransactionID {
				t.ID = existing.ID
				s.items[i] = t
				return t.ID, nil
			}
		}
	}
	t.ID = 0
	return s.insert(t), nil
}

func (s *Store) LogRejected(_ context.Context, raw, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, Rejected{Raw: raw, Reason: reason})
	return nil
}

// Rejected returns the messages logged via LogRejected.
func (s *Store) Rejected() []Rejected {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Rejected(nil), s.rejected...)
}

// insert assigns an id when missing. Callers hold mu or own s exclusively.
func (s *Store) insert(t core.Transaction) int64 {
	if t.ID == 0 {
		t.ID = s.nextID
	}
	if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	s.items = append(s.items, t)
	return t.ID
}
