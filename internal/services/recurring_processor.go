package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"
)

// RecurringProcessor materializes due recurring templates into expenses.
// Runs are serialized so a scheduled run and a manual one never book the same
// month twice.
type RecurringProcessor struct {
	mu       sync.Mutex
	store    store.RecurringStore
	expenses *ExpenseService
	dueness  DuenessChecker
}

func NewRecurringProcessor(st store.RecurringStore, expenses *ExpenseService) *RecurringProcessor {
	return &RecurringProcessor{store: st, expenses: expenses, dueness: MonthlyChecker{}}
}

// ProcessDueExpenses books every template due on now's day. Failures on one
// template are logged and the rest still run.
func (p *RecurringProcessor) ProcessDueExpenses(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.expenses == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	templates, err := p.store.ListRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring expenses: %w", err)
	}
	today := core.DateOf(now)

	slog.InfoContext(ctx, "Processing recurring expenses", "templates", len(templates), "processing_date", today)

	processed := 0
	for _, re := range templates {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if !p.dueness.IsDue(re, today) {
			continue
		}
		if _, err := p.materialize(ctx, re, today); err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring expense", "recurring_id", re.ID, "error", err)
			continue
		}
		processed++
	}

	slog.InfoContext(ctx, "Recurring expense processing complete", "processed", processed, "total_checked", len(templates))
	return processed, nil
}

// MaterializeNow books the current month for a single template when the
// given checker finds it due. It reports whether an expense was created.
func (p *RecurringProcessor) MaterializeNow(ctx context.Context, re core.RecurringExpense, now time.Time, check DuenessChecker) (core.RecurringExpense, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := core.DateOf(now)
	if !check.IsDue(re, today) {
		return re, false, nil
	}
	updated, err := p.materialize(ctx, re, today)
	if err != nil {
		return re, false, err
	}
	return updated, true, nil
}

// materialize creates the month's expense on the clamped due day, then marks
// the template as generated.
func (p *RecurringProcessor) materialize(ctx context.Context, re core.RecurringExpense, today core.Date) (core.RecurringExpense, error) {
	date := core.NewDate(today.Year(), today.Month(), re.DueDay(today.Year(), today.Month()))

	e, err := p.expenses.CreateExpense(ctx, core.Expense{
		Description: re.Description,
		Amount:      re.Amount,
		Category:    re.Category,
		Date:        date,
		IsRecurring: true,
		RecurringID: re.ID,
	})
	if err != nil {
		return re, fmt.Errorf("create expense: %w", err)
	}

	re.LastGenerated = &date
	if err := p.store.SaveRecurring(ctx, re); err != nil {
		// The expense exists; the next run would book it again.
		return re, fmt.Errorf("mark recurring %s generated: %w", re.ID, err)
	}

	slog.InfoContext(ctx, "Created expense from recurring template",
		"recurring_id", re.ID,
		"expense_id", e.ID,
		"description", re.Description,
		"amount", re.Amount.StringFixed(2),
		"date", date)
	return re, nil
}
