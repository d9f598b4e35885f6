// Package models defines data structures for the scraper.
package models

import "time"

// ShippingMethod distinguishes the flat-rate envelope product from everything else.
type ShippingMethod string

const (
	ShippingStandardEnvelope ShippingMethod = "StandardEnvelope"
	ShippingOther            ShippingMethod = "Other"
)

// Sentinel values used when a field cannot be located.
const (
	NotAvailable = "N/A"
	UnknownDate  = "Unknown"
	ZeroPrice    = "0.00"
)

// OrderRecord is one scraped order detail page.
type OrderRecord struct {
	OrderID                string         `csv:"order_id" json:"order_id"`
	ItemTitle              string         `csv:"item_title" json:"item_title"`
	DateSold               string         `csv:"date_sold" json:"date_sold"`
	SoldPriceSubtotal      string         `csv:"sold_price_subtotal" json:"sold_price_subtotal"`
	ShippingChargedToBuyer string         `csv:"shipping_charged_to_buyer" json:"shipping_charged_to_buyer"`
	TaxCollected           string         `csv:"tax_collected" json:"tax_collected"`
	OrderTotal             string         `csv:"order_total" json:"order_total"`
	TransactionFees        string         `csv:"transaction_fees" json:"transaction_fees"`
	AdFees                 string         `csv:"ad_fees" json:"ad_fees"`
	ShippingLabelCost      string         `csv:"shipping_label_cost" json:"shipping_label_cost"`
	ShippingMethod         ShippingMethod `csv:"shipping_method" json:"shipping_method"`
	SKU                    string         `csv:"sku" json:"sku"`

	// SortTimestamp is epoch millis of DateSold at midnight. Never persisted.
	SortTimestamp *int64 `csv:"-" json:"-"`
}

// OrderColumns lists the persisted column headings in record order.
var OrderColumns = []string{
	"Order ID",
	"Item Title",
	"Date Sold",
	"Sold Price (Subtotal)",
	"Shipping Charged to Buyer",
	"Tax Collected",
	"Order Total",
	"Transaction Fees",
	"Ad Fees",
	"Shipping Label Cost",
	"Shipping Method",
	"SKU",
}

// Values returns the persisted fields in OrderColumns order.
func (r OrderRecord) Values() []string {
	return []string{
		r.OrderID,
		r.ItemTitle,
		r.DateSold,
		r.SoldPriceSubtotal,
		r.ShippingChargedToBuyer,
		r.TaxCollected,
		r.OrderTotal,
		r.TransactionFees,
		r.AdFees,
		r.ShippingLabelCost,
		string(r.ShippingMethod),
		r.SKU,
	}
}

// HasSortKey reports whether the order date resolved to a calendar date.
func (r OrderRecord) HasSortKey() bool {
	return r.SortTimestamp != nil
}

// RunSummary describes the date range covered by a run.
type RunSummary struct {
	Start time.Time
	End   time.Time
	Count int
}

// ScraperResult holds the overall result of a scraping run.
type ScraperResult struct {
	Records      []OrderRecord
	SaleDates    []time.Time // ascending, one per record with a resolved date
	Summary      RunSummary
	StartTime    time.Time
	EndTime      time.Time
	OrderCount   int
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
	RequestCount int
	PageCount    int
}
