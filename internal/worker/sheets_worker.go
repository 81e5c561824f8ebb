package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/core"
	"finplan/internal/sheets"
)

// ExpenseSource reads stored expenses.
type ExpenseSource interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	ExpensesIn(ctx context.Context, month core.Date) ([]core.Expense, error)
}

// SheetsWorker mirrors materialized expenses into the spreadsheet. Rows carry
// the expense id so redelivered messages are not appended twice.
type SheetsWorker struct {
	expenses ExpenseSource
	mirror   sheets.ExpenseMirror
}

func NewSheetsWorker(expenses ExpenseSource, mirror sheets.ExpenseMirror) *SheetsWorker {
	return &SheetsWorker{expenses: expenses, mirror: mirror}
}

// HandleExpenseMaterialized processes a single expense message from AMQP.
func (w *SheetsWorker) HandleExpenseMaterialized(ctx context.Context, msg *amqp.ExpenseMaterializedMessage) error {
	slog.InfoContext(ctx, "Processing expense message", "id", msg.ID, "recurring_id", msg.RecurringID)

	expense, err := w.expenses.GetExpense(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}
	mirrored, err := w.mirroredIDs(ctx, expense.Date)
	if err != nil {
		return err
	}
	if _, ok := mirrored[expense.ID]; ok {
		slog.InfoContext(ctx, "Expense already mirrored, skipping", "id", expense.ID)
		return nil
	}
	return w.append(ctx, expense)
}

// ReconcileMonth appends every expense of month's calendar month that the
// sheet is missing. It covers messages lost while the worker was down.
func (w *SheetsWorker) ReconcileMonth(ctx context.Context, month core.Date) (int, error) {
	stored, err := w.expenses.ExpensesIn(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("list expenses: %w", err)
	}
	if len(stored) == 0 {
		return 0, nil
	}
	mirrored, err := w.mirroredIDs(ctx, month)
	if err != nil {
		return 0, err
	}

	synced, failed := 0, 0
	for _, e := range stored {
		if _, ok := mirrored[e.ID]; ok {
			continue
		}
		if err := w.append(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror expense", "id", e.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Reconciled expenses with sheet",
		"month", month.FirstOfMonth(),
		"stored", len(stored),
		"synced", synced,
		"errors", failed)
	return synced, nil
}

// Run reconciles the current month every interval until ctx ends.
func (w *SheetsWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := w.ReconcileMonth(ctx, core.DateOf(now)); err != nil {
				slog.ErrorContext(ctx, "Periodic sheet reconciliation failed", "error", err)
			}
		}
	}
}

func (w *SheetsWorker) mirroredIDs(ctx context.Context, month core.Date) (map[string]struct{}, error) {
	rows, err := w.mirror.ListExpenses(ctx, month.Year(), month.Month())
	if err != nil {
		return nil, fmt.Errorf("list mirrored expenses: %w", err)
	}
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.ID != "" {
			ids[r.ID] = struct{}{}
		}
	}
	return ids, nil
}

func (w *SheetsWorker) append(ctx context.Context, e core.Expense) error {
	ref, err := w.mirror.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Mirrored expense",
		"id", e.ID,
		"sheets_ref", ref,
		"description", e.Description,
		"amount", e.Amount.StringFixed(2))
	return nil
}
