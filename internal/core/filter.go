package core

import "strings"

// Filter selects the visible subset of the loaded transactions.
// The zero Filter selects everything.
type Filter struct {
	Search string // case-insensitive substring, blank = no constraint
	Type   string // exact type, blank = no constraint
}

// Normalize trims and lowercases the search text. Type is kept verbatim
// and compared exactly.
func (f Filter) Normalize() Filter {
	return Filter{
		Search: strings.ToLower(strings.TrimSpace(f.Search)),
		Type:   f.Type,
	}
}

// IsZero reports whether the filter selects every record.
func (f Filter) IsZero() bool {
	n := f.Normalize()
	return n.Search == "" && n.Type == ""
}

// Matches reports whether t belongs to the visible subset.
func (f Filter) Matches(t Transaction) bool {
	n := f.Normalize()
	if n.Type != "" && t.Type != n.Type {
		return false
	}
	if n.Search == "" {
		return true
	}
	for _, field := range []string{t.RawMessage, t.Type, t.SenderName, t.ReceiverName, t.TransactionID} {
		if field != "" && strings.Contains(strings.ToLower(field), n.Search) {
			return true
		}
	}
	return false
}

// Apply returns the records of all that match the filter, in input order.
// The input slice is never modified.
func (f Filter) Apply(all []Transaction) []Transaction {
	out := make([]Transaction, 0, len(all))
	if f.IsZero() {
		return append(out, all...)
	}
	for _, t := range all {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
