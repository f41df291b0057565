// Package sheets defines the spreadsheet ledger that transactions are exported to.
package sheets

import (
	"context"

	"momo/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter appends transactions as rows, one row per record.
	LedgerWriter interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) (updatedRange string, err error)
	}

	// LedgerCursor reports the highest transaction id already in the ledger,
	// or 0 for an empty ledger.
	LedgerCursor interface {
		LastExportedID(ctx context.Context) (int64, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerCursor
	}
)
