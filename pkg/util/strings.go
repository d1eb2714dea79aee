package util

import (
	"github.com/shopspring/decimal"
)

// FormatCompact renders large quantities with a B/M/K suffix and one decimal,
// e.g. 1234567 -> "1.2M". Values below a thousand keep one decimal and no suffix.
func FormatCompact(n float64) string {
	d := decimal.NewFromFloat(n)
	switch {
	case n >= 1e9:
		return d.Shift(-9).Round(1).StringFixed(1) + "B"
	case n >= 1e6:
		return d.Shift(-6).Round(1).StringFixed(1) + "M"
	case n >= 1e3:
		return d.Shift(-3).Round(1).StringFixed(1) + "K"
	default:
		return d.Round(1).StringFixed(1)
	}
}

// Round2 rounds a price to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
