package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finplan/internal/core"
	"finplan/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recurringFixture struct {
	store     *memory.Store
	events    *recordingPublisher
	expenses  *ExpenseService
	processor *RecurringProcessor
	recurring *RecurringService
}

func newRecurringFixture(t *testing.T) *recurringFixture {
	t.Helper()
	st := memory.New()
	events := &recordingPublisher{}

	expenses := NewExpenseService(st, events)
	expenses.now, expenses.newID = fixedNow, sequence("exp")

	processor := NewRecurringProcessor(st, expenses)
	recurring := NewRecurringService(st, processor)
	recurring.now, recurring.newID = fixedNow, sequence("rec")

	return &recurringFixture{store: st, events: events, expenses: expenses, processor: processor, recurring: recurring}
}

func rent(day int) RecurringInput {
	return RecurringInput{
		Description: "Rent",
		Amount:      decimal.RequireFromString("1450.005"),
		Category:    "Housing",
		DayOfMonth:  day,
	}
}

func TestRecurringService_CreateBooksCurrentMonth(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture(t)

	re, err := f.recurring.Create(ctx, rent(28))
	require.NoError(t, err)
	assert.True(t, re.Active)
	assert.Equal(t, "1450.01", re.Amount.StringFixed(2))
	require.NotNil(t, re.LastGenerated)
	assert.Equal(t, "2025-10-28", re.LastGenerated.String())

	booked, err := f.expenses.ExpensesIn(ctx, oct)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "2025-10-28", booked[0].Date.String())
	assert.True(t, booked[0].IsRecurring)
	assert.Equal(t, re.ID, booked[0].RecurringID)
	require.Len(t, f.events.expenses, 1)
	assert.Equal(t, booked[0].ID, f.events.expenses[0].ID)

	n, err := f.recurring.ProcessNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already booked this month")
}

func TestRecurringService_CreateInactive(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture(t)

	in := rent(5)
	inactive := false
	in.Active = &inactive
	re, err := f.recurring.Create(ctx, in)
	require.NoError(t, err)
	assert.False(t, re.Active)
	assert.Nil(t, re.LastGenerated)
	assert.Empty(t, f.events.expenses)
}

func TestRecurringService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture(t)

	cases := []struct {
		name string
		edit func(*RecurringInput)
		want error
	}{
		{"empty description", func(in *RecurringInput) { in.Description = "  " }, core.ErrEmptyDescription},
		{"zero amount", func(in *RecurringInput) { in.Amount = decimal.Zero }, core.ErrInvalidAmount},
		{"day 0", func(in *RecurringInput) { in.DayOfMonth = 0 }, core.ErrInvalidDay},
		{"day 32", func(in *RecurringInput) { in.DayOfMonth = 32 }, core.ErrInvalidDay},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := rent(1)
			tc.edit(&in)
			_, err := f.recurring.Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}

	list, err := f.recurring.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecurringService_UpdateKeepsLastGenerated(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture(t)

	re, err := f.recurring.Create(ctx, rent(1))
	require.NoError(t, err)

	in := rent(15)
	in.Description = "Rent (new lease)"
	updated, err := f.recurring.Update(ctx, re.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.DayOfMonth)
	require.NotNil(t, updated.LastGenerated)
	assert.Equal(t, "2025-10-01", updated.LastGenerated.String())

	_, err = f.recurring.Update(ctx, "missing", in)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, f.recurring.Delete(ctx, re.ID))
	_, err = f.recurring.Get(ctx, re.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, f.recurring.Delete(ctx, re.ID), core.ErrNotFound)
}

func TestRecurringProcessor_ClampsAndContinues(t *testing.T) {
	ctx := context.Background()
	f := newRecurringFixture(t)
	f.events.err = errors.New("broker down")

	require.NoError(t, f.store.SaveRecurring(ctx, core.RecurringExpense{
		ID: "broken", Description: "", Amount: decimal.NewFromInt(10), DayOfMonth: 1, Active: true,
	}))
	require.NoError(t, f.store.SaveRecurring(ctx, core.RecurringExpense{
		ID: "gym", Description: "Gym", Amount: decimal.NewFromInt(40), DayOfMonth: 31, Active: true,
	}))
	require.NoError(t, f.store.SaveRecurring(ctx, core.RecurringExpense{
		ID: "paused", Description: "Paused", Amount: decimal.NewFromInt(5), DayOfMonth: 1,
	}))

	november := time.Date(2025, 11, 30, 2, 0, 0, 0, time.UTC)
	n, err := f.processor.ProcessDueExpenses(ctx, november)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	booked, err := f.expenses.ExpensesIn(ctx, core.NewDate(2025, 11, 1))
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "2025-11-30", booked[0].Date.String())
	assert.Equal(t, "gym", booked[0].RecurringID)

	gym, err := f.recurring.Get(ctx, "gym")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-30", gym.LastGenerated.String())

	n, err = f.processor.ProcessDueExpenses(ctx, november.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecurringProcessor_StopsOnCancel(t *testing.T) {
	f := newRecurringFixture(t)
	_, err := f.recurring.Create(context.Background(), rent(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.processor.ProcessDueExpenses(ctx, testNow.AddDate(0, 1, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecurringProcessor_NotInitialized(t *testing.T) {
	p := &RecurringProcessor{}
	_, err := p.ProcessDueExpenses(context.Background(), testNow)
	assert.Error(t, err)

	svc := NewRecurringService(memory.New(), nil)
	_, err = svc.ProcessNow(context.Background())
	assert.Error(t, err)
}
