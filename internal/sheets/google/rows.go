package google

import (
	"fmt"
	"strconv"
	"strings"

	"momo/internal/core"
)

const lastColumn = "L"

var ledgerHeader = []string{
	"ID", "Transaction ID", "Type", "Amount (RWF)", "Fee (RWF)",
	"Sender", "Receiver", "Phone", "Agent", "Agent Phone",
	"Date Time", "Message",
}

func headerRow() []any {
	row := make([]any, len(ledgerHeader))
	for i, h := range ledgerHeader {
		row[i] = h
	}
	return row
}

// transactionRow lays t out in ledgerHeader order. Amounts are written as
// numbers so the sheet can sum them.
func transactionRow(t core.Transaction) []any {
	date := ""
	if t.HasDateTime() {
		date = t.DateTime.Format(core.DateTimeLayout)
	}
	return []any{
		t.ID,
		t.TransactionID,
		t.DisplayType(),
		t.Amount.Francs(),
		t.Fee.Francs(),
		t.SenderName,
		t.ReceiverName,
		t.PhoneNumber,
		t.AgentName,
		t.AgentPhone,
		date,
		t.RawMessage,
	}
}

// maxID returns the largest integer in the first cell of each row,
// ignoring blanks and anything non-numeric.
func maxID(values [][]any) int64 {
	var max int64
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(row[0]))
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// USER_ENTERED numbers can come back as "12.0".
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				continue
			}
			id = int64(f)
		}
		if id > max {
			max = id
		}
	}
	return max
}
