package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"5000", 500000, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatRWF(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0 RWF"},
		{500000, "5,000 RWF"},
		{150050, "1,500.5 RWF"},
		{150005, "1,500.05 RWF"},
		{123456789, "1,234,567.89 RWF"},
		{-5000, "-50 RWF"},
	}
	for _, tc := range cases {
		if got := FormatRWF(Money{Cents: tc.cents}); got != tc.want {
			t.Errorf("FormatRWF(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestFromFrancs(t *testing.T) {
	if got := FromFrancs(1500.5); got.Cents != 150050 {
		t.Fatalf("FromFrancs(1500.5) = %d", got.Cents)
	}
	if got := FromFrancs(12.34); got.Cents != 1234 {
		t.Fatalf("FromFrancs(12.34) = %d", got.Cents)
	}
	if got := (Money{Cents: 250}).Francs(); got != 2.5 {
		t.Fatalf("Francs() = %v", got)
	}
}
