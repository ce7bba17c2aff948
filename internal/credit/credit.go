// Package credit coerces raw credit cells into decimal amounts.
package credit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts one cell. Blank or non-numeric cells yield an invalid
// (missing) value instead of an error.
func Parse(v string) decimal.NullDecimal {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Coerce converts every cell, preserving length and order.
func Coerce(values []string) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(values))
	for i, v := range values {
		out[i] = Parse(v)
	}
	return out
}

// Sum adds the valid values, skipping missing ones.
func Sum(values []decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}
