package parser

import (
	"strings"

	"github.com/aluiziolira/go-scrape-orders/models"
)

// MaxAncestorDepth bounds how far TransactionFees climbs from the fee label.
const MaxAncestorDepth = 3

const transactionFeePhrase = "transaction fees"

// TransactionFees finds the fee amount rendered near a "Transaction fees" label.
// The label's next sibling is checked first; otherwise each ancestor up to
// MaxAncestorDepth is scanned and the last amount in its text wins, since fee
// blocks list the running subtotal before the fee itself. A page without a fee
// block yields "0.00".
func TransactionFees(c Corpus) string {
	for _, n := range c.Elements() {
		text := n.Text()
		if !IsShortText(text) || !strings.Contains(strings.ToLower(text), transactionFeePhrase) {
			continue
		}

		if sib := n.NextSibling(); sib != nil {
			if amounts := CurrencyAmounts(sib.Text()); len(amounts) > 0 {
				return CleanPrice(amounts[0])
			}
		}
		if amount, ok := LastAmountInAncestors(n, MaxAncestorDepth); ok {
			return CleanPrice(amount)
		}
	}
	return models.ZeroPrice
}

// LastAmountInAncestors walks up to maxDepth parents of n and returns the last
// currency amount found in the first ancestor whose text has one.
func LastAmountInAncestors(n Node, maxDepth int) (string, bool) {
	current := n
	for depth := 0; depth < maxDepth; depth++ {
		current = current.Parent()
		if current == nil {
			return "", false
		}
		if amounts := CurrencyAmounts(current.Text()); len(amounts) > 0 {
			return amounts[len(amounts)-1], true
		}
	}
	return "", false
}
