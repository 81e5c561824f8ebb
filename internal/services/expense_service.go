package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	"github.com/google/uuid"
)

// ExpenseService stores expenses and announces them on the event bus.
type ExpenseService struct {
	store  store.ExpenseStore
	events EventPublisher

	now   func() time.Time
	newID func() string
}

// NewExpenseService wires the service. events may be nil.
func NewExpenseService(st store.ExpenseStore, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: st, events: events, now: time.Now, newID: uuid.NewString}
}

// CreateExpense saves e and publishes it. A publish failure is logged only.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	e.Amount = e.Amount.Round(2)
	e.CreatedAt = s.now()

	if err := s.store.AddExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping expense event", "id", e.ID)
		return e, nil
	}
	if err := s.events.PublishExpenseMaterialized(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event", "id", e.ID, "error", err)
	}
	return e, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ExpensesIn lists the expenses dated in month's calendar month.
func (s *ExpenseService) ExpensesIn(ctx context.Context, month core.Date) ([]core.Expense, error) {
	list, err := s.store.ExpensesIn(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}
