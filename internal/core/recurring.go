package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecurringExpense is a monthly debit template.
type RecurringExpense struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	DayOfMonth    int             `json:"dayOfMonth"`
	IsEMI         bool            `json:"isEmi"`
	DebtAccountID string          `json:"debtAccountId,omitempty"`
	Active        bool            `json:"active"`
	LastGenerated *Date           `json:"lastGenerated,omitempty"`
}

// Expense is a materialized debit.
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
	IsRecurring bool            `json:"isRecurring"`
	RecurringID string          `json:"recurringId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (re RecurringExpense) Validate() error {
	if len(strings.TrimSpace(re.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(re.Description) > 200 {
		return Invalid("description too long (max 200 characters)")
	}
	if !re.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if re.DayOfMonth < 1 || re.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

// DueDay clamps DayOfMonth to the length of the given month.
func (re RecurringExpense) DueDay(year, month int) int {
	last := DaysIn(year, month)
	if re.DayOfMonth > last {
		return last
	}
	return re.DayOfMonth
}

// GeneratedIn reports whether the template was already materialized in month's calendar month.
func (re RecurringExpense) GeneratedIn(month Date) bool {
	return re.LastGenerated != nil && re.LastGenerated.SameMonth(month)
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Clone returns a copy with its own LastGenerated.
func (re RecurringExpense) Clone() RecurringExpense {
	c := re
	c.LastGenerated = clonePtr(re.LastGenerated)
	return c
}
