package google

import (
	"strings"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func formatRow(e core.Expense) []any {
	return []any{
		e.Date.String(),
		e.Description,
		e.Amount.StringFixed(2),
		e.Category,
		e.RecurringID,
		e.ID,
	}
}

// parseRow reads a row written by formatRow. Header and blank rows fail.
func parseRow(cols []string) (core.Expense, bool) {
	if len(cols) < 3 {
		return core.Expense{}, false
	}
	date, err := core.ParseDate(cols[0])
	if err != nil {
		return core.Expense{}, false
	}
	amount, ok := parseAmount(cols[2])
	if !ok {
		return core.Expense{}, false
	}
	e := core.Expense{
		Date:        date,
		Description: cols[1],
		Amount:      amount,
		Category:    safeGet(cols, 3),
		RecurringID: safeGet(cols, 4),
		ID:          safeGet(cols, 5),
	}
	e.IsRecurring = e.RecurringID != ""
	if strings.TrimSpace(e.Description) == "" && e.Amount.IsZero() {
		return core.Expense{}, false
	}
	return e, true
}

// parseAmount accepts "1,234.50", "1.234,50", "1234,50" and a leading currency sign.
// The last separator is the decimal one.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "$€"))
	if s == "" {
		return decimal.Zero, false
	}
	switch {
	case strings.LastIndex(s, ",") > strings.LastIndex(s, ".") && strings.Contains(s, "."):
		s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return strings.TrimSpace(arr[idx])
}
