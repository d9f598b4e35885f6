package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/aluiziolira/go-scrape-orders/models"
)

// ShortLabelMaxLen bounds the raw text length of a node that may act as a label.
// Longer nodes are content blocks that merely mention the label.
const ShortLabelMaxLen = 60

// Locate finds the value rendered next to one of labels.
//
// Nodes whose normalized text equals a label are tried before nodes whose text
// only starts with one, so "Shipping" does not lose to "Shipping label" when
// both are present. For each label node the following element siblings are
// searched, then the parent's next sibling once.
//
// Price lookups return CleanPrice of the value or "0.00"; other lookups return
// the trimmed value or "N/A".
func Locate(c Corpus, isPrice bool, labels ...string) string {
	sentinel := models.NotAvailable
	if isPrice {
		sentinel = models.ZeroPrice
	}

	for _, n := range labelNodes(c.Elements(), labels) {
		value, ok := siblingValue(n, isPrice)
		if !ok {
			continue
		}
		if isPrice {
			return CleanPrice(value)
		}
		return value
	}
	return sentinel
}

// NormalizeLabel lower-cases text and strips a trailing colon.
func NormalizeLabel(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimSuffix(text, ":")
	return strings.TrimSpace(text)
}

// IsShortText reports whether text is short enough to be a label. Callers pass
// the whitespace-collapsed text, the same form a browser renders.
func IsShortText(text string) bool {
	return utf8.RuneCountInString(text) < ShortLabelMaxLen
}

func labelNodes(elements []Node, labels []string) []Node {
	var exact, prefix []Node
	for _, n := range elements {
		raw := n.Text()
		if raw == "" || !IsShortText(raw) {
			continue
		}
		normalized := NormalizeLabel(raw)
		switch matchLabel(normalized, labels) {
		case matchExact:
			exact = append(exact, n)
		case matchPrefix:
			prefix = append(prefix, n)
		}
	}
	return append(exact, prefix...)
}

type labelMatch int

const (
	matchNone labelMatch = iota
	matchPrefix
	matchExact
)

func matchLabel(normalized string, labels []string) labelMatch {
	best := matchNone
	for _, label := range labels {
		if normalized == label {
			return matchExact
		}
		if strings.HasPrefix(normalized, label) {
			best = matchPrefix
		}
	}
	return best
}

func siblingValue(n Node, isPrice bool) (string, bool) {
	label := n.Text()
	// Wrappers that add no text of their own stand for the same label, so
	// their siblings are searched too.
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur != n && cur.Text() != label {
			break
		}
		if text, ok := nextValue(cur, isPrice); ok {
			return text, true
		}
	}
	return "", false
}

func nextValue(n Node, isPrice bool) (string, bool) {
	for sib := n.NextSibling(); sib != nil; sib = sib.NextSibling() {
		if text := sib.Text(); qualifies(text, isPrice) {
			return text, true
		}
	}

	parent := n.Parent()
	if parent == nil {
		return "", false
	}
	if next := parent.NextSibling(); next != nil {
		if text := next.Text(); qualifies(text, isPrice) {
			return text, true
		}
	}
	return "", false
}

func qualifies(text string, isPrice bool) bool {
	if isPrice {
		return HasPriceMarker(text)
	}
	return text != ""
}
