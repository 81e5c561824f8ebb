// Package core provides the domain types shared by the engines, stores and transports.
//
// This file contains currency and percentage rounding helpers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round2Ptr rounds a value and returns a pointer to it.
func Round2Ptr(v float64) *float64 {
	r := Round2(v)
	return &r
}

// ParseAmount converts a decimal string ("12.34" or "12,34") to a positive amount
// rounded to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatUSD renders a dollar amount with thousands separators and two decimals ("$2,600.00").
func FormatUSD(v float64) string {
	s := decimal.NewFromFloat(v).Abs().StringFixed(2)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + frac
	if v < 0 {
		return "-" + out
	}
	return out
}
