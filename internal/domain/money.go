package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice converts a decimal price string ("12.50") into cents.
// At most two fractional digits are accepted, negatives are not.
func ParsePrice(s string) (int64, error) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || strings.HasPrefix(whole, "-") || strings.HasPrefix(whole, "+") {
		return 0, ErrInvalidPrice
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	cents := int64(0)
	if frac != "" {
		if len(frac) > 2 {
			return 0, ErrInvalidPrice
		}
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrInvalidPrice
		}
	}
	return units*100 + cents, nil
}

// FormatPrice renders cents as a decimal string with two fractional digits.
// Negative amounts carry a single leading sign, as on cancellation invoices.
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
