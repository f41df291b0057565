package core

import (
	"errors"
	"strings"
	"time"
)

// DateTimeLayout is the timestamp format used by the SMS exports, the
// database and the JSON API.
const DateTimeLayout = "2006-01-02 15:04:05"

// UnknownType labels records whose type is blank.
const UnknownType = "Unknown"

type (
	Money struct {
		Cents int64
	}

	// Transaction is a single mobile-money record. Zero values mean the
	// field was absent in the source; only ID and Type are always set
	// for stored records.
	Transaction struct {
		ID            int64
		TransactionID string // external id, e.g. "TXN123456"
		Type          string
		Amount        Money
		Fee           Money
		SenderName    string
		ReceiverName  string
		PhoneNumber   string
		AgentName     string
		AgentPhone    string
		DateTime      time.Time
		RawMessage    string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyType     = errors.New("empty transaction type")
)

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Type) == "" {
		return ErrEmptyType
	}
	if t.Amount.Cents < 0 || t.Fee.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DisplayType returns the type, or UnknownType when blank.
func (t Transaction) DisplayType() string {
	if strings.TrimSpace(t.Type) == "" {
		return UnknownType
	}
	return t.Type
}

// Month returns the YYYY-MM bucket of the timestamp, or "" when absent.
func (t Transaction) Month() string {
	if t.DateTime.IsZero() {
		return ""
	}
	return t.DateTime.Format("2006-01")
}

// HasDateTime reports whether the record carries a timestamp.
func (t Transaction) HasDateTime() bool {
	return !t.DateTime.IsZero()
}

// ParseDateTime parses a timestamp in DateTimeLayout, falling back to RFC 3339.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(DateTimeLayout, s); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}
