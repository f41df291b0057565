package core

import (
	"encoding/json"
	"fmt"
)

// transactionJSON is the wire shape shared by the API and the remote source.
// Amounts travel as franc decimals; absent values are null.
type transactionJSON struct {
	ID            int64    `json:"id"`
	TransactionID *string  `json:"transaction_id"`
	Type          string   `json:"transaction_type"`
	Amount        *float64 `json:"amount"`
	Fee           *float64 `json:"fee"`
	SenderName    *string  `json:"sender_name"`
	ReceiverName  *string  `json:"receiver_name"`
	PhoneNumber   *string  `json:"phone_number"`
	AgentName     *string  `json:"agent_name"`
	AgentPhone    *string  `json:"agent_phone"`
	DateTime      *string  `json:"date_time"`
	RawMessage    *string  `json:"raw_message"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	w := transactionJSON{
		ID:            t.ID,
		TransactionID: strPtr(t.TransactionID),
		Type:          t.Type,
		SenderName:    strPtr(t.SenderName),
		ReceiverName:  strPtr(t.ReceiverName),
		PhoneNumber:   strPtr(t.PhoneNumber),
		AgentName:     strPtr(t.AgentName),
		AgentPhone:    strPtr(t.AgentPhone),
		RawMessage:    strPtr(t.RawMessage),
	}
	w.Amount = francsPtr(t.Amount)
	w.Fee = francsPtr(t.Fee)
	if t.HasDateTime() {
		s := t.DateTime.Format(DateTimeLayout)
		w.DateTime = &s
	}
	return json.Marshal(w)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Transaction{
		ID:            w.ID,
		TransactionID: deref(w.TransactionID),
		Type:          w.Type,
		SenderName:    deref(w.SenderName),
		ReceiverName:  deref(w.ReceiverName),
		PhoneNumber:   deref(w.PhoneNumber),
		AgentName:     deref(w.AgentName),
		AgentPhone:    deref(w.AgentPhone),
		RawMessage:    deref(w.RawMessage),
	}
	if w.Amount != nil {
		out.Amount = FromFrancs(*w.Amount)
	}
	if w.Fee != nil {
		out.Fee = FromFrancs(*w.Fee)
	}
	if w.DateTime != nil && *w.DateTime != "" {
		ts, err := ParseDateTime(*w.DateTime)
		if err != nil {
			return fmt.Errorf("parse date_time %q: %w", *w.DateTime, err)
		}
		out.DateTime = ts
	}
	*t = out
	return nil
}

// francsPtr returns nil for an absent (zero) amount.
func francsPtr(m Money) *float64 {
	if m.IsZero() {
		return nil
	}
	f := m.Francs()
	return &f
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
