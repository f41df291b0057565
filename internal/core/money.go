// Package core provides money parsing and handling utilities.
//
// Amounts are kept as hundredths of a Rwandan Franc so that fractional
// values from SMS exports survive without floating point drift.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

// Currency is the unit shown next to every amount.
const Currency = "RWF"

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("5000")   -> 500000, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FromFrancs builds a Money value from a franc amount as found in JSON payloads.
func FromFrancs(f float64) Money {
	if f < 0 {
		return Money{Cents: int64(f*100 - 0.5)}
	}
	return Money{Cents: int64(f*100 + 0.5)}
}

// Francs returns the amount as a float64 for charts and JSON output.
// Use Cents for arithmetic.
func (m Money) Francs() float64 {
	return float64(m.Cents) / 100.0
}

// IsZero reports whether the amount is zero, which also stands for "absent".
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// String implements fmt.Stringer using FormatRWF.
func (m Money) String() string {
	return FormatRWF(m)
}

// FormatRWF renders an amount with thousands grouping, e.g. "5,000 RWF" or
// "1,500.5 RWF". Trailing fractional zeros are dropped.
func FormatRWF(m Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := humanize.Comma(cents / 100)
	if rem := cents % 100; rem != 0 {
		frac := strings.TrimRight(strconv.FormatInt(100+rem, 10)[1:], "0")
		s += "." + frac
	}
	if neg {
		s = "-" + s
	}
	return s + " " + Currency
}
