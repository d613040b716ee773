package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Round rounds to cents, half away from zero.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// FormatCurrency renders a dollar amount such as "$1,234.50" or "-$3.00".
func FormatCurrency(value decimal.Decimal) string {
	s := Round(value).StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}

	out := "$" + sb.String() + "." + frac
	if negative {
		return "-" + out
	}
	return out
}
