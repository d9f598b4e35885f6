package parser

import (
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-orders/models"
	"github.com/shopspring/decimal"
)

var (
	// amountPattern matches an optional currency symbol and an amount with exactly
	// two decimals. The trailing group must be empty for the match to count.
	amountPattern = regexp.MustCompile(`[$£€]?\s?(\d[\d,]*\.\d{2})(\d*)`)

	// currencyAmountPattern requires the symbol; used when scanning whole blocks.
	currencyAmountPattern = regexp.MustCompile(`[$£€]\s?(\d[\d,]*\.\d{2})(\d*)`)
)

// CleanPrice returns the first amount in text as "$N.NN", or "0.00".
func CleanPrice(text string) string {
	amount, ok := firstAmount(text)
	if !ok {
		return models.ZeroPrice
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return models.ZeroPrice
	}
	return "$" + value.StringFixed(2)
}

// ParsePrice returns the first amount in text. The sign is not captured.
func ParsePrice(text string) decimal.Decimal {
	amount, ok := firstAmount(text)
	if !ok {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// FormatPrice renders the absolute value as "$N.NN". Negative amounts lose
// their sign.
func FormatPrice(value decimal.Decimal) string {
	return "$" + value.Abs().StringFixed(2)
}

// HasPriceMarker reports whether text carries a currency symbol or the word "free".
func HasPriceMarker(text string) bool {
	if strings.ContainsAny(text, "$£€") {
		return true
	}
	return strings.Contains(strings.ToLower(text), "free")
}

// CurrencyAmounts returns every symbol-prefixed amount in text, in order.
func CurrencyAmounts(text string) []string {
	var out []string
	for _, m := range currencyAmountPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		out = append(out, m[0])
	}
	return out
}

func firstAmount(text string) (string, bool) {
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		return strings.ReplaceAll(m[1], ",", ""), true
	}
	return "", false
}
