package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "dollar with thousands", in: "$1,234.50", want: "$1234.50"},
		{name: "pound", in: "£12.00", want: "$12.00"},
		{name: "euro with space", in: "€ 3.10", want: "$3.10"},
		{name: "no symbol", in: "Total: 45.67 USD", want: "$45.67"},
		{name: "negative loses sign", in: "-$4.25", want: "$4.25"},
		{name: "first amount wins", in: "$1.00 then $2.00", want: "$1.00"},
		{name: "free", in: "Free", want: "0.00"},
		{name: "three decimals", in: "12.345", want: "0.00"},
		{name: "whole dollars", in: "$5", want: "0.00"},
		{name: "empty", in: "", want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanPrice(tt.in))
		})
	}
}

func TestCleanPriceIdempotent(t *testing.T) {
	for _, in := range []string{"$1,234.50", "£0.99", "Order total US $13.00", "-€7.25"} {
		once := CleanPrice(in)
		assert.Equal(t, once, CleanPrice(once), "input %q", in)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "$1,234.50", want: "1234.50"},
		{in: "£0.99", want: "0.99"},
		{in: "-$4.25", want: "4.25"},
		{in: "no amount here", want: "0"},
		{in: "Free", want: "0"},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "ParsePrice(%q) = %s, want %s", tt.in, got, tt.want)
	}
}

// FormatPrice drops the sign on purpose; refunds and fees render as positive amounts.
func TestFormatPriceDropsSign(t *testing.T) {
	assert.Equal(t, "$5.00", FormatPrice(decimal.NewFromInt(-5)))
	assert.Equal(t, "$5.00", FormatPrice(decimal.NewFromInt(5)))
	assert.Equal(t, "$0.10", FormatPrice(decimal.RequireFromString("0.1")))
}

func TestCurrencyAmounts(t *testing.T) {
	got := CurrencyAmounts("Subtotal $12.80 Fee -$1.66 ref 10.00 and $3.999")
	assert.Equal(t, []string{"$12.80", "$1.66"}, got)
	assert.Empty(t, CurrencyAmounts("nothing to see"))
}

func TestHasPriceMarker(t *testing.T) {
	assert.True(t, HasPriceMarker("$2.00"))
	assert.True(t, HasPriceMarker("€"))
	assert.True(t, HasPriceMarker("FREE shipping"))
	assert.False(t, HasPriceMarker("12.00"))
	assert.False(t, HasPriceMarker(""))
}
