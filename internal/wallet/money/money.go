// Package money converts between display dollars and integer cents.
//
// Balances are stored exclusively as integer cents so arithmetic never
// touches floating point. Floats appear only at the HTTP boundary.
package money

import "fmt"

// CentsPerDollar is the minor-unit scale applied at every boundary.
const CentsPerDollar = 100

// CentsFromDollars converts a display amount to integer cents.
//
// The conversion truncates toward zero, so fractional tenths of a cent are
// dropped rather than rounded. Callers sending 10.999 transfer 1099 cents.
func CentsFromDollars(dollars float64) int64 {
	return int64(dollars * CentsPerDollar)
}

// DollarsFromCents converts integer cents to a display amount.
func DollarsFromCents(cents int64) float64 {
	return float64(cents) / CentsPerDollar
}

// FormatDollars renders cents as a dollar string, e.g. 10000 -> "$100.00".
func FormatDollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/CentsPerDollar, cents%CentsPerDollar)
}
