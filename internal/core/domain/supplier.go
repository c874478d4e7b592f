package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SupplierRecord is one row of the supplier inventory feed. Quantity and
// price are kept as raw text; interpretation happens at reconciliation time.
type SupplierRecord struct {
	Code         string `json:"code"`
	QuantityText string `json:"quantity"`
	PriceText    string `json:"price"`
}

// overflowStock is published when the supplier reports ">10" and stops
// counting.
const overflowStock = 100

// ClassifyQuantity maps the feed's textual quantity onto a stock count.
// ">10" becomes 100. "1" is suppressed to zero: a single remaining unit may
// already be reserved and is never published. Anything else must parse as a
// base-10 integer.
func ClassifyQuantity(raw string) (int, error) {
	switch raw {
	case ">10":
		return overflowStock, nil
	case "1":
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedQuantity, raw)
	}
	return n, nil
}

// NormalizePrice reduces a textual price to its digits: the fractional part
// after the first '.' is dropped, then every remaining non-digit is
// stripped. "1 000.50 руб." becomes "1000". An empty result is defined
// behavior, not an error.
func NormalizePrice(raw string) string {
	head, _, _ := strings.Cut(raw, ".")
	var b strings.Builder
	for i := 0; i < len(head); i++ {
		if head[i] >= '0' && head[i] <= '9' {
			b.WriteByte(head[i])
		}
	}
	return b.String()
}
