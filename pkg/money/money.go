// Package money formats and combines prices held as exact decimals.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is appended to every formatted amount.
const Symbol = "₽"

// Format renders an amount the way the storefront shows it: whole amounts
// without a fractional part ("395 ₽"), others with two places ("395.50 ₽").
func Format(amount decimal.Decimal) string {
	return FormatPlain(amount) + " " + Symbol
}

// FormatPlain is Format without the currency symbol.
func FormatPlain(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String()
	}
	return amount.StringFixedBank(2)
}

// LineTotal returns price x quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Sum adds amounts; the sum of nothing is zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Parse reads a user-entered amount such as "400", "400.5" or "400,50".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), Symbol))
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
