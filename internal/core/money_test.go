package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"350", 35000, true},
		{"0.01", 1, true},
		{"12.345", 1234, true}, // third decimal rounds half-up
		{"12.346", 1235, true},
		{" 99 ", 9900, true},
		{"", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"12a", 0, false},
		{"12.3a", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: expected %d, got %d err=%v", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error, got %d", tc.in, got)
		}
	}
}

func TestMoneyPercent(t *testing.T) {
	salary := Money{Cents: 4000000} // AED 40,000
	if got := salary.Percent(20); got.Cents != 800000 {
		t.Fatalf("20%% of 40000: got %d", got.Cents)
	}
	if got := salary.Percent(0); got.Cents != 0 {
		t.Fatalf("0%%: got %d", got.Cents)
	}
	// Truncation, not rounding: 90% of 0.01 is zero cents.
	if got := (Money{Cents: 1}).Percent(90); got.Cents != 0 {
		t.Fatalf("90%% of 1 cent: got %d", got.Cents)
	}
}

func TestFormatAED(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "AED 0.00"},
		{1234, "AED 12.34"},
		{800000, "AED 8,000.00"},
		{123456789, "AED 1,234,567.89"},
		{-1234, "-AED 12.34"},
	}
	for _, tc := range cases {
		if got := FormatAED(Money{Cents: tc.cents}); got != tc.want {
			t.Fatalf("%d: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}
