package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringInput is the client-writable part of a recurring template.
type RecurringInput struct {
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	DayOfMonth    int             `json:"dayOfMonth"`
	IsEMI         bool            `json:"isEmi"`
	DebtAccountID string          `json:"debtAccountId"`
	Active        *bool           `json:"active"`
}

func (in RecurringInput) apply(re *core.RecurringExpense) {
	re.Description = in.Description
	re.Amount = in.Amount.Round(2)
	re.Category = in.Category
	re.DayOfMonth = in.DayOfMonth
	re.IsEMI = in.IsEMI
	re.DebtAccountID = in.DebtAccountID
	if in.Active != nil {
		re.Active = *in.Active
	}
}

// RecurringService manages recurring templates.
type RecurringService struct {
	store     store.RecurringStore
	processor *RecurringProcessor

	now   func() time.Time
	newID func() string
}

func NewRecurringService(st store.RecurringStore, processor *RecurringProcessor) *RecurringService {
	return &RecurringService{store: st, processor: processor, now: time.Now, newID: uuid.NewString}
}

func (s *RecurringService) List(ctx context.Context) ([]core.RecurringExpense, error) {
	list, err := s.store.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	return list, nil
}

func (s *RecurringService) Get(ctx context.Context, id string) (core.RecurringExpense, error) {
	re, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense: %w", err)
	}
	return re, nil
}

// Create stores a new template and books the current month right away.
// Templates default to active.
func (s *RecurringService) Create(ctx context.Context, in RecurringInput) (core.RecurringExpense, error) {
	re := core.RecurringExpense{ID: s.newID(), Active: true}
	in.apply(&re)
	if err := re.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if err := s.store.SaveRecurring(ctx, re); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("save recurring expense: %w", err)
	}
	slog.InfoContext(ctx, "Created recurring expense", "id", re.ID, "day", re.DayOfMonth, "amount", re.Amount.StringFixed(2))

	if s.processor != nil {
		updated, booked, err := s.processor.MaterializeNow(ctx, re, s.now(), ImmediateChecker{})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to book first month of recurring expense", "id", re.ID, "error", err)
		} else if booked {
			re = updated
		}
	}
	return re, nil
}

// Update replaces the client fields of a template. LastGenerated is kept.
func (s *RecurringService) Update(ctx context.Context, id string, in RecurringInput) (core.RecurringExpense, error) {
	re, err := s.store.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense: %w", err)
	}
	in.apply(&re)
	if err := re.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}
	if err := s.store.SaveRecurring(ctx, re); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("save recurring expense: %w", err)
	}
	slog.InfoContext(ctx, "Updated recurring expense", "id", id, "active", re.Active)
	return re, nil
}

func (s *RecurringService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	slog.InfoContext(ctx, "Deleted recurring expense", "id", id)
	return nil
}

// ProcessNow runs the due check for today.
func (s *RecurringService) ProcessNow(ctx context.Context) (int, error) {
	if s.processor == nil {
		return 0, fmt.Errorf("recurring processor not configured")
	}
	return s.processor.ProcessDueExpenses(ctx, s.now())
}
