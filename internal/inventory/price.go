package inventory

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/jdginv/internal/domain"
)

// ParsePrice reads a price as a decimal. Prices that are not plain numbers
// report ok=false.
func ParsePrice(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// TotalValue sums every parseable price; the rest count as zero.
func TotalValue(items []domain.Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if d, ok := ParsePrice(it.Price); ok {
			total = total.Add(d)
		}
	}
	return total
}
