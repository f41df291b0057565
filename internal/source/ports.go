package source

import (
	"context"
	"errors"

	"momo/internal/core"
)

// ErrNotFound is returned when a transaction id is unknown.
var ErrNotFound = errors.New("transaction not found")

// Ports for transaction data adapters.
type (
	TransactionReader interface {
		// ListTransactions returns every loaded record, newest first where the
		// backend can order them.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		// ListTypes returns the distinct transaction types, sorted.
		ListTypes(ctx context.Context) ([]string, error)
	}

	TransactionGetter interface {
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	// TransactionWriter stores parsed records. Records sharing an external
	// transaction id replace each other.
	TransactionWriter interface {
		Upsert(ctx context.Context, t core.Transaction) (id int64, err error)
	}

	// RejectLogger keeps messages that could not be turned into records.
	RejectLogger interface {
		LogRejected(ctx context.Context, raw, reason string) error
	}
)
