package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finplan/internal/core"

	"github.com/shopspring/decimal"
)

func scanRecurring(s rowScanner) (core.RecurringExpense, error) {
	var (
		re            core.RecurringExpense
		amount        string
		isEMI         int
		active        int
		lastGenerated sql.NullString
	)
	if err := s.Scan(&re.ID, &re.Description, &amount, &re.Category, &re.DayOfMonth, &isEMI,
		&re.DebtAccountID, &active, &lastGenerated); err != nil {
		return core.RecurringExpense{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	re.Amount = d
	re.IsEMI = isEMI != 0
	re.Active = active != 0
	re.LastGenerated = datePtr(lastGenerated)
	return re, nil
}

const recurringColumns = `id, description, amount, category, day_of_month, is_emi, debt_account_id, active, last_generated`

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recurringColumns+` FROM recurring_expenses ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		out = append(out, re)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id string) (core.RecurringExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_expenses WHERE id = ?`, id)
	re, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringExpense{}, notFound("recurring expense", id)
	}
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("get recurring expense: %w", err)
	}
	return re, nil
}

func (r *SQLiteRepository) SaveRecurring(ctx context.Context, re core.RecurringExpense) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO recurring_expenses (`+recurringColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			amount = excluded.amount,
			category = excluded.category,
			day_of_month = excluded.day_of_month,
			is_emi = excluded.is_emi,
			debt_account_id = excluded.debt_account_id,
			active = excluded.active,
			last_generated = excluded.last_generated`,
		re.ID, re.Description, re.Amount.String(), re.Category, re.DayOfMonth, boolInt(re.IsEMI),
		re.DebtAccountID, boolInt(re.Active), nullDate(re.LastGenerated), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save recurring expense %s: %w", re.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("recurring expense", id)
	}
	return nil
}

// Expenses

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses
		(id, description, amount, category, date, is_recurring, recurring_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Amount.String(), e.Category, e.Date.String(), boolInt(e.IsRecurring),
		e.RecurringID, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

const expenseColumns = `id, description, amount, category, date, is_recurring, recurring_id, created_at`

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                       core.Expense
		amount, date, createdAt string
		recurring               int
	)
	if err := s.Scan(&e.ID, &e.Description, &amount, &e.Category, &date, &recurring, &e.RecurringID, &createdAt); err != nil {
		return core.Expense{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Amount = d
	e.Date = mustDate(date)
	e.IsRecurring = recurring != 0
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, notFound("expense", id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ExpensesIn(ctx context.Context, month core.Date) ([]core.Expense, error) {
	first := month.FirstOfMonth()
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE date >= ? AND date < ? ORDER BY date, rowid`, first.String(), first.AddMonths(1).String())
	if err != nil {
		return nil, fmt.Errorf("get expenses by month: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
