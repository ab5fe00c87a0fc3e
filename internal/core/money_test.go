package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"24.99", 2499, true},
		{"$24.99", 2499, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٣", 0, false},
		{"1.٣٣", 0, false},
		{"١٢", 0, false},
		{"１.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{2499, "$24.99"},
		{123456, "$1,234.56"},
		{123456789, "$1,234,567.89"},
		{-1050, "-$10.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(24.99); got.Cents != 2499 {
		t.Fatalf("expected 2499 cents, got %d", got.Cents)
	}
	if got := MoneyFromFloat(0.1 + 0.2); got.Cents != 30 {
		t.Fatalf("expected 30 cents, got %d", got.Cents)
	}
}

func TestPerUnit(t *testing.T) {
	m := Money{Cents: 2499}
	if got := FormatPerUnit(m.PerUnit(184)); got != "$0.1358" {
		t.Fatalf("expected $0.1358, got %s", got)
	}
	if !m.PerUnit(0).Equal(decimal.Zero) {
		t.Fatalf("expected zero for zero units")
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -2500: "-2,500"}
	for in, want := range tests {
		if got := FormatCount(in); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", in, got, want)
		}
	}
}
