package parser

import (
	"regexp"
	"strings"

	"github.com/aluiziolira/go-scrape-orders/models"
)

// StandardEnvelopeCost is the published label price of eBay Standard Envelope.
const StandardEnvelopeCost = "$0.74"

const standardEnvelopeName = "ebay standard envelope"

// esusPattern matches the product abbreviation as a whole word and in capitals
// only, so ordinary words containing "esus" do not qualify.
var esusPattern = regexp.MustCompile(`\bESUS\b`)

// IsStandardEnvelope reports whether the page or item title mentions the
// flat-rate envelope product.
func IsStandardEnvelope(pageText, title string) bool {
	for _, text := range []string{pageText, title} {
		if strings.Contains(strings.ToLower(text), standardEnvelopeName) || esusPattern.MatchString(text) {
			return true
		}
	}
	return false
}

// ClassifyShipping returns the shipping method and label cost. Envelope orders
// without a rendered label cost fall back to StandardEnvelopeCost.
func ClassifyShipping(pageText, title, labelCost string) (models.ShippingMethod, string) {
	if labelCost == "" {
		labelCost = models.ZeroPrice
	}
	if !IsStandardEnvelope(pageText, title) {
		return models.ShippingOther, labelCost
	}
	if ParsePrice(labelCost).IsZero() {
		return models.ShippingStandardEnvelope, StandardEnvelopeCost
	}
	return models.ShippingStandardEnvelope, labelCost
}
