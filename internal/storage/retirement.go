package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finplan/internal/core"
)

const retirementColumns = `id, snapshot_date, current_age, one_time_additions, total_balance, total_contributions,
	target_portfolio_value, after_tax_mode, flat_tax_rate, tax_free_rate, tax_deferred_rate, taxable_rate, created_at`

func scanRetirement(s rowScanner) (core.RetirementSnapshot, error) {
	var (
		snap                                core.RetirementSnapshot
		date, createdAt                     string
		age, oneTime, target                sql.NullFloat64
		flat, taxFree, taxDeferred, taxable sql.NullFloat64
		afterTax                            sql.NullInt64
	)
	err := s.Scan(&snap.ID, &date, &age, &oneTime, &snap.TotalBalance, &snap.TotalContributions,
		&target, &afterTax, &flat, &taxFree, &taxDeferred, &taxable, &createdAt)
	if err != nil {
		return core.RetirementSnapshot{}, err
	}
	snap.SnapshotDate = mustDate(date)
	snap.CurrentAge = floatPtr(age)
	snap.OneTimeAdditions = floatPtr(oneTime)
	snap.TargetPortfolioValue = floatPtr(target)
	snap.AfterTaxMode = boolPtr(afterTax)
	snap.FlatTaxRate = floatPtr(flat)
	snap.TaxFreeRate = floatPtr(taxFree)
	snap.TaxDeferredRate = floatPtr(taxDeferred)
	snap.TaxableRate = floatPtr(taxable)
	snap.CreatedAt = parseTime(createdAt)
	return snap, nil
}

func (r *SQLiteRepository) queryRetirement(ctx context.Context, query string, args ...any) ([]core.RetirementSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query retirement snapshots: %w", err)
	}
	var out []core.RetirementSnapshot
	for rows.Next() {
		snap, err := scanRetirement(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan retirement snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Close before loading children: the pool holds a single connection.
	rows.Close()

	for i := range out {
		accs, err := r.retirementAccounts(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Accounts = accs
	}
	return out, nil
}

func (r *SQLiteRepository) retirementAccounts(ctx context.Context, snapshotID string) ([]core.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_type, goal_type, balance, contribution, previous_balance
		FROM retirement_accounts WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query retirement accounts: %w", err)
	}
	defer rows.Close()

	out := []core.AccountBalance{}
	for rows.Next() {
		var (
			b    core.AccountBalance
			prev sql.NullFloat64
		)
		if err := rows.Scan(&b.AccountType, &b.GoalType, &b.Balance, &b.Contribution, &prev); err != nil {
			return nil, fmt.Errorf("scan retirement account: %w", err)
		}
		b.PreviousBalance = floatPtr(prev)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListRetirementSnapshots(ctx context.Context) ([]core.RetirementSnapshot, error) {
	return r.queryRetirement(ctx, `SELECT `+retirementColumns+` FROM retirement_snapshots ORDER BY snapshot_date DESC`)
}

func (r *SQLiteRepository) RetirementSnapshotAt(ctx context.Context, date core.Date) (core.RetirementSnapshot, error) {
	out, err := r.queryRetirement(ctx, `SELECT `+retirementColumns+` FROM retirement_snapshots WHERE snapshot_date = ?`, date.String())
	if err != nil {
		return core.RetirementSnapshot{}, err
	}
	if len(out) == 0 {
		return core.RetirementSnapshot{}, notFound("retirement snapshot", date)
	}
	return out[0], nil
}

func (r *SQLiteRepository) RetirementSnapshotsBetween(ctx context.Context, from, to core.Date) ([]core.RetirementSnapshot, error) {
	return r.queryRetirement(ctx, `SELECT `+retirementColumns+` FROM retirement_snapshots
		WHERE snapshot_date >= ? AND snapshot_date < ? ORDER BY snapshot_date`, from.String(), to.String())
}

// SaveRetirementSnapshot replaces whatever snapshot exists at s.SnapshotDate.
func (r *SQLiteRepository) SaveRetirementSnapshot(ctx context.Context, s core.RetirementSnapshot) error {
	return r.withTx(ctx, func(q querier) error {
		if err := deleteRetirementAt(ctx, q, s.SnapshotDate); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx, `INSERT INTO retirement_snapshots (`+retirementColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.SnapshotDate.String(), nullFloat(s.CurrentAge), nullFloat(s.OneTimeAdditions),
			s.TotalBalance, s.TotalContributions, nullFloat(s.TargetPortfolioValue), nullBool(s.AfterTaxMode),
			nullFloat(s.FlatTaxRate), nullFloat(s.TaxFreeRate), nullFloat(s.TaxDeferredRate), nullFloat(s.TaxableRate),
			formatTime(s.CreatedAt))
		if err != nil {
			return fmt.Errorf("save retirement snapshot %s: %w", s.SnapshotDate, err)
		}
		for i, a := range s.Accounts {
			_, err := q.ExecContext(ctx, `INSERT INTO retirement_accounts
				(snapshot_id, position, account_type, goal_type, balance, contribution, previous_balance)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.ID, i, a.AccountType, a.GoalType, a.Balance, a.Contribution, nullFloat(a.PreviousBalance))
			if err != nil {
				return fmt.Errorf("save retirement account %s: %w", a.AccountType, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteRetirementSnapshotAt(ctx context.Context, date core.Date) error {
	if _, err := r.RetirementSnapshotAt(ctx, date); err != nil {
		return err
	}
	return r.withTx(ctx, func(q querier) error {
		return deleteRetirementAt(ctx, q, date)
	})
}

func deleteRetirementAt(ctx context.Context, q querier, date core.Date) error {
	_, err := q.ExecContext(ctx, `DELETE FROM retirement_accounts WHERE snapshot_id IN
		(SELECT id FROM retirement_snapshots WHERE snapshot_date = ?)`, date.String())
	if err != nil {
		return fmt.Errorf("delete retirement accounts: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM retirement_snapshots WHERE snapshot_date = ?`, date.String()); err != nil {
		return fmt.Errorf("delete retirement snapshot: %w", err)
	}
	return nil
}
