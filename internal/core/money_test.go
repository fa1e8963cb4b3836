package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"349", "349"},
		{"₹1,249.50", "1249.5"},
		{"  12.00 ", "12"},
		{"-45.5", "-45.5"},
		{"INR 2000", "2000"},
		{"", "0"},
		{"abc", "0"},
		{"1.2.3", "0"},
		{"-", "0"},
		{".5", "0.5"},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in)
		want := decimal.RequireFromString(tc.out)
		if !got.Equal(want) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "₹0"},
		{"349", "₹349"},
		{"1249.5", "₹1,250"},
		{"12000", "₹12,000"},
		{"100000", "₹1,00,000"},
		{"12345678", "₹1,23,45,678"},
		{"-2000", "-₹2,000"},
	}
	for _, tc := range cases {
		got := FormatINR(decimal.RequireFromString(tc.in))
		if got != tc.out {
			t.Fatalf("FormatINR(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
