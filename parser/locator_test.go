package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDocument(t *testing.T, body string) *Document {
	t.Helper()
	doc, err := NewDocumentFromString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		isPrice bool
		labels  []string
		want    string
	}{
		{
			name:    "adjacent sibling",
			body:    `<div><span>Item subtotal</span><span>$10.00</span></div>`,
			isPrice: true,
			labels:  SubtotalLabels,
			want:    "$10.00",
		},
		{
			name:    "case and trailing colon",
			body:    `<dl><dt>SUBTOTAL:</dt><dd>US $1,010.00</dd></dl>`,
			isPrice: true,
			labels:  SubtotalLabels,
			want:    "$1010.00",
		},
		{
			name:    "skips siblings without price",
			body:    `<div><span>Order total</span><span>(includes tax)</span><span>$13.00</span></div>`,
			isPrice: true,
			labels:  OrderTotalLabels,
			want:    "$13.00",
		},
		{
			name:    "parent next sibling",
			body:    `<div><div><span>Ad fee</span></div><div>-$0.50</div></div>`,
			isPrice: true,
			labels:  AdFeeLabels,
			want:    "$0.50",
		},
		{
			name:    "label nested two wrappers deep",
			body:    `<div class="row"><div class="lbl"><div><span>Order total</span></div></div><div class="val">$13.00</div></div>`,
			isPrice: true,
			labels:  OrderTotalLabels,
			want:    "$13.00",
		},
		{
			name:    "label padded with whitespace",
			body:    "<div><span>Subtotal" + strings.Repeat(" ", 56) + "</span><span>$10.00</span></div>",
			isPrice: true,
			labels:  SubtotalLabels,
			want:    "$10.00",
		},
		{
			name:    "free qualifies and cleans to zero",
			body:    `<div><span>Shipping</span><span>Free</span><span>$2.00</span></div>`,
			isPrice: true,
			labels:  ShippingChargedLabels,
			want:    "0.00",
		},
		{
			name:    "long text is not a label",
			body:    `<div><p>Subtotal reflects the item price after every seller discount and coupon</p><span>$99.00</span></div>`,
			isPrice: true,
			labels:  SubtotalLabels,
			want:    "0.00",
		},
		{
			name:    "missing price label",
			body:    `<div><span>Buyer</span><span>jdoe</span></div>`,
			isPrice: true,
			labels:  TaxLabels,
			want:    "0.00",
		},
		{
			name:    "text value",
			body:    `<dl><dt>Custom label (SKU)</dt><dd> BR-COMP-01 </dd></dl>`,
			isPrice: false,
			labels:  SKULabels,
			want:    "BR-COMP-01",
		},
		{
			name:    "missing text label",
			body:    `<div><span>Quantity</span><span>1</span></div>`,
			isPrice: false,
			labels:  SKULabels,
			want:    "N/A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDocument(t, tt.body)
			assert.Equal(t, tt.want, Locate(doc, tt.isPrice, tt.labels...))
		})
	}
}

func TestLocatePrefersExactLabel(t *testing.T) {
	doc := mustDocument(t, `
		<div><span>Shipping label</span><span>-$4.25</span></div>
		<div><span>Shipping</span><span>$2.00</span></div>`)

	assert.Equal(t, "$2.00", Locate(doc, true, "shipping"))
}

// With no exact label on the page a prefix hit is still accepted, so "Shipping"
// can resolve to the label cost. Kept because eBay renders "Shipping paid by
// buyer" style labels that only match by prefix.
func TestLocateFallsBackToPrefixLabel(t *testing.T) {
	doc := mustDocument(t, `<div><span>Shipping label</span><span>-$4.25</span></div>`)

	assert.Equal(t, "$4.25", Locate(doc, true, "shipping"))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "order total", NormalizeLabel("  Order Total: "))
	assert.Equal(t, "sku", NormalizeLabel("SKU"))
}
