// Package parser extracts order fields from rendered eBay order detail pages.
package parser

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-orders/models"
)

var orderIDPattern = regexp.MustCompile(`\b\d{2}-\d{5}-\d{5}\b`)

// Extractor assembles one OrderRecord per order detail page.
type Extractor struct {
	// Location is the zone sale dates are interpreted in. Nil means UTC.
	Location *time.Location
}

// NewExtractor returns an extractor interpreting dates in loc.
func NewExtractor(loc *time.Location) *Extractor {
	return &Extractor{Location: loc}
}

// Extract builds the record for one page. Missing fields resolve to sentinels;
// Extract never fails.
func (e *Extractor) Extract(c Corpus, pageURL string) models.OrderRecord {
	text := c.Text()
	title := c.ItemTitle()

	subtotal := Locate(c, true, SubtotalLabels...)
	shipping := Locate(c, true, ShippingChargedLabels...)
	total := Locate(c, true, OrderTotalLabels...)
	tax := ReconcileTax(subtotal, shipping, total, Locate(c, true, TaxLabels...))
	method, labelCost := ClassifyShipping(text, title, Locate(c, true, LabelCostLabels...))
	date := ExtractDate(text, e.Location)

	return models.OrderRecord{
		OrderID:                ExtractOrderID(text, pageURL),
		ItemTitle:              title,
		DateSold:               date.Display,
		SoldPriceSubtotal:      subtotal,
		ShippingChargedToBuyer: shipping,
		TaxCollected:           tax,
		OrderTotal:             total,
		TransactionFees:        TransactionFees(c),
		AdFees:                 Locate(c, true, AdFeeLabels...),
		ShippingLabelCost:      labelCost,
		ShippingMethod:         method,
		SKU:                    Locate(c, false, SKULabels...),
		SortTimestamp:          date.SortKey,
	}
}

// ExtractOrderID finds an "NN-NNNNN-NNNNN" order number in the page text, then
// in the orderid query parameter of pageURL.
func ExtractOrderID(text, pageURL string) string {
	if id := orderIDPattern.FindString(text); id != "" {
		return id
	}
	if u, err := url.Parse(pageURL); err == nil {
		for key, values := range u.Query() {
			if !strings.EqualFold(key, "orderid") || len(values) == 0 {
				continue
			}
			if id := orderIDPattern.FindString(values[0]); id != "" {
				return id
			}
		}
	}
	return models.NotAvailable
}

// DefaultedFields lists the record fields that fell back to a sentinel.
func DefaultedFields(r models.OrderRecord) []string {
	var fields []string
	check := func(name, value, sentinel string) {
		if value == sentinel {
			fields = append(fields, name)
		}
	}
	check("order_id", r.OrderID, models.NotAvailable)
	check("item_title", r.ItemTitle, models.NotAvailable)
	check("date_sold", r.DateSold, models.UnknownDate)
	check("sold_price_subtotal", r.SoldPriceSubtotal, models.ZeroPrice)
	check("shipping_charged_to_buyer", r.ShippingChargedToBuyer, models.ZeroPrice)
	check("tax_collected", r.TaxCollected, models.ZeroPrice)
	check("order_total", r.OrderTotal, models.ZeroPrice)
	check("transaction_fees", r.TransactionFees, models.ZeroPrice)
	check("ad_fees", r.AdFees, models.ZeroPrice)
	check("shipping_label_cost", r.ShippingLabelCost, models.ZeroPrice)
	check("sku", r.SKU, models.NotAvailable)
	return fields
}
