package parser

// Accepted label spellings per field, lower-case without trailing colons.
var (
	SubtotalLabels = []string{
		"item subtotal",
		"subtotal",
		"sold for",
		"item price",
	}

	ShippingChargedLabels = []string{
		"shipping",
		"shipping charged",
		"shipping paid by buyer",
		"buyer paid shipping",
		"postage",
	}

	TaxLabels = []string{
		"sales tax",
		"tax",
		"tax collected",
		"ebay collected tax",
		"ebay collected sales tax",
	}

	OrderTotalLabels = []string{
		"order total",
		"total",
		"buyer paid total",
	}

	AdFeeLabels = []string{
		"ad fee",
		"ad fees",
		"promoted listings fee",
		"promoted listings standard fee",
	}

	LabelCostLabels = []string{
		"shipping label",
		"shipping label cost",
		"label cost",
		"postage label",
	}

	SKULabels = []string{
		"custom label (sku)",
		"custom label",
		"sku",
	}
)
