package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finplan/internal/core"
)

const snapshotColumns = `id, snapshot_date, total_debt, credit_card_debt, personal_loan_debt, auto_loan_debt,
	total_accounts, active_accounts, paid_off_accounts, total_monthly_payment, total_monthly_interest,
	performance_score, debt_reduction, payments_this_month, new_charges, principal_paid, interest_paid, created_at`

func scanSnapshot(s rowScanner) (core.DebtSnapshot, error) {
	var (
		snap                                 core.DebtSnapshot
		date, createdAt                      string
		reduction, charges, principal, intPd sql.NullFloat64
		payments                             sql.NullInt64
	)
	err := s.Scan(&snap.ID, &date, &snap.TotalDebt, &snap.CreditCardDebt, &snap.PersonalLoanDebt, &snap.AutoLoanDebt,
		&snap.TotalAccounts, &snap.ActiveAccounts, &snap.PaidOffAccounts, &snap.TotalMonthlyPayment, &snap.TotalMonthlyInterest,
		&snap.PerformanceScore, &reduction, &payments, &charges, &principal, &intPd, &createdAt)
	if err != nil {
		return core.DebtSnapshot{}, err
	}
	snap.SnapshotDate = mustDate(date)
	snap.CreatedAt = parseTime(createdAt)
	if reduction.Valid || payments.Valid || charges.Valid || principal.Valid || intPd.Valid {
		snap.Metadata = &core.SnapshotMetadata{
			DebtReduction:     floatPtr(reduction),
			PaymentsThisMonth: intPtr(payments),
			NewCharges:        floatPtr(charges),
			PrincipalPaid:     floatPtr(principal),
			InterestPaid:      floatPtr(intPd),
		}
	}
	return snap, nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context) ([]core.DebtSnapshot, error) {
	return r.querySnapshots(ctx, `SELECT `+snapshotColumns+` FROM debt_snapshots ORDER BY snapshot_date DESC`)
}

func (r *SQLiteRepository) SnapshotsBetween(ctx context.Context, from, to core.Date) ([]core.DebtSnapshot, error) {
	return r.querySnapshots(ctx, `SELECT `+snapshotColumns+` FROM debt_snapshots
		WHERE snapshot_date >= ? AND snapshot_date <= ? ORDER BY snapshot_date DESC`, from.String(), to.String())
}

func (r *SQLiteRepository) querySnapshots(ctx context.Context, query string, args ...any) ([]core.DebtSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.DebtSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SnapshotAt(ctx context.Context, date core.Date) (core.DebtSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM debt_snapshots WHERE snapshot_date = ?`, date.String())
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DebtSnapshot{}, notFound("snapshot", date)
	}
	if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s core.DebtSnapshot) error {
	return upsertSnapshot(ctx, r.db, s)
}

func upsertSnapshot(ctx context.Context, q querier, s core.DebtSnapshot) error {
	var m core.SnapshotMetadata
	if s.Metadata != nil {
		m = *s.Metadata
	}
	_, err := q.ExecContext(ctx, `INSERT INTO debt_snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(snapshot_date) DO UPDATE SET
			total_debt = excluded.total_debt,
			credit_card_debt = excluded.credit_card_debt,
			personal_loan_debt = excluded.personal_loan_debt,
			auto_loan_debt = excluded.auto_loan_debt,
			total_accounts = excluded.total_accounts,
			active_accounts = excluded.active_accounts,
			paid_off_accounts = excluded.paid_off_accounts,
			total_monthly_payment = excluded.total_monthly_payment,
			total_monthly_interest = excluded.total_monthly_interest,
			performance_score = excluded.performance_score,
			debt_reduction = excluded.debt_reduction,
			payments_this_month = excluded.payments_this_month,
			new_charges = excluded.new_charges,
			principal_paid = excluded.principal_paid,
			interest_paid = excluded.interest_paid`,
		s.ID, s.SnapshotDate.String(), s.TotalDebt, s.CreditCardDebt, s.PersonalLoanDebt, s.AutoLoanDebt,
		s.TotalAccounts, s.ActiveAccounts, s.PaidOffAccounts, s.TotalMonthlyPayment, s.TotalMonthlyInterest,
		s.PerformanceScore, nullFloat(m.DebtReduction), nullInt(m.PaymentsThisMonth), nullFloat(m.NewCharges),
		nullFloat(m.PrincipalPaid), nullFloat(m.InterestPaid), formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.SnapshotDate, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSnapshotAt(ctx context.Context, date core.Date) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debt_snapshots WHERE snapshot_date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("snapshot", date)
	}
	return nil
}

// ReplaceSnapshot swaps the accounts and snapshot at s.SnapshotDate in one transaction.
func (r *SQLiteRepository) ReplaceSnapshot(ctx context.Context, s core.DebtSnapshot, accs []core.Account) error {
	return r.withTx(ctx, func(q querier) error {
		if _, err := deleteAccountsAt(ctx, q, s.SnapshotDate); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM debt_snapshots WHERE snapshot_date = ?`, s.SnapshotDate.String()); err != nil {
			return fmt.Errorf("delete snapshot: %w", err)
		}
		if err := upsertSnapshot(ctx, q, s); err != nil {
			return err
		}
		for _, a := range accs {
			if err := upsertAccount(ctx, q, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	return r.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("clear accounts: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM debt_snapshots`); err != nil {
			return fmt.Errorf("clear snapshots: %w", err)
		}
		return nil
	})
}
