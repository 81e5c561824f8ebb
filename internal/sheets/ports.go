package sheets

import (
	"context"

	"finplan/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseLister returns the mirrored expenses of one calendar month.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, year int, month int) ([]core.Expense, error)
	}

	ExpenseMirror interface {
		ExpenseWriter
		ExpenseLister
	}
)
