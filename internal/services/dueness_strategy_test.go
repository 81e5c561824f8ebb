package services

import (
	"testing"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func template(day int, last *core.Date) core.RecurringExpense {
	return core.RecurringExpense{
		ID:            "r1",
		Description:   "Rent",
		Amount:        decimal.NewFromInt(1200),
		DayOfMonth:    day,
		Active:        true,
		LastGenerated: last,
	}
}

func datePtr(y, m, d int) *core.Date {
	date := core.NewDate(y, m, d)
	return &date
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name  string
		re    core.RecurringExpense
		today core.Date
		want  bool
	}{
		{
			name:  "never generated, day reached",
			re:    template(15, nil),
			today: core.NewDate(2025, 10, 15),
			want:  true,
		},
		{
			name:  "never generated, day not reached",
			re:    template(15, nil),
			today: core.NewDate(2025, 10, 14),
			want:  false,
		},
		{
			name:  "generated last month",
			re:    template(1, datePtr(2025, 9, 1)),
			today: core.NewDate(2025, 10, 2),
			want:  true,
		},
		{
			name:  "already generated this month",
			re:    template(1, datePtr(2025, 10, 1)),
			today: core.NewDate(2025, 10, 28),
			want:  false,
		},
		{
			name:  "day 31 clamps to end of february",
			re:    template(31, datePtr(2025, 1, 31)),
			today: core.NewDate(2025, 2, 28),
			want:  true,
		},
		{
			name:  "day 31 waits for the 30th in november",
			re:    template(31, nil),
			today: core.NewDate(2025, 11, 29),
			want:  false,
		},
		{
			name: "inactive template",
			re: func() core.RecurringExpense {
				re := template(1, nil)
				re.Active = false
				return re
			}(),
			today: core.NewDate(2025, 10, 19),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.re, tt.today); got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImmediateChecker_IsDue(t *testing.T) {
	checker := ImmediateChecker{}
	today := core.NewDate(2025, 10, 2)

	if !checker.IsDue(template(28, nil), today) {
		t.Error("new template should be due before its day")
	}
	if checker.IsDue(template(28, datePtr(2025, 10, 28)), today) {
		t.Error("template generated this month should not be due")
	}
}
