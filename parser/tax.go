package parser

import "github.com/shopspring/decimal"

// CalcSuffix marks a tax value inferred from the order arithmetic.
const CalcSuffix = " (Calc)"

// TaxNoiseThreshold is the largest residual treated as rounding noise.
var TaxNoiseThreshold = decimal.RequireFromString("0.05")

// ReconcileTax infers tax folded into the order total when no tax line was
// scraped. It returns scrapedTax unchanged unless the scraped tax is zero, the
// total is positive and total-subtotal-shipping exceeds TaxNoiseThreshold.
func ReconcileTax(subtotal, shipping, total, scrapedTax string) string {
	if !ParsePrice(scrapedTax).IsZero() {
		return scrapedTax
	}
	orderTotal := ParsePrice(total)
	if !orderTotal.IsPositive() {
		return scrapedTax
	}

	calculated := orderTotal.Sub(ParsePrice(subtotal)).Sub(ParsePrice(shipping))
	if calculated.GreaterThan(TaxNoiseThreshold) {
		return FormatPrice(calculated) + CalcSuffix
	}
	return scrapedTax
}
