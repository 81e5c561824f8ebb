package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finplan/internal/core"
)

const accountColumns = `id, account_id, name, type, current_balance, credit_limit, apr, monthly_payment,
	promo_expires, status, opened_date, notes, snapshot_date,
	principal_per_month, months_left, payoff_date, priority, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (core.Account, error) {
	var (
		a                      core.Account
		creditLimit, principal sql.NullFloat64
		promo, opened, payoff  sql.NullString
		monthsLeft, priority   sql.NullInt64
		snapshotDate           string
		createdAt, updatedAt   string
	)
	err := s.Scan(&a.ID, &a.AccountID, &a.Name, &a.Type, &a.CurrentBalance, &creditLimit, &a.APR, &a.MonthlyPayment,
		&promo, &a.Status, &opened, &a.Notes, &snapshotDate,
		&principal, &monthsLeft, &payoff, &priority, &createdAt, &updatedAt)
	if err != nil {
		return core.Account{}, err
	}
	a.CreditLimit = floatPtr(creditLimit)
	a.PromoExpires = datePtr(promo)
	a.OpenedDate = datePtr(opened)
	a.SnapshotDate = mustDate(snapshotDate)
	a.PrincipalPerMonth = floatPtr(principal)
	a.MonthsLeft = intPtr(monthsLeft)
	a.PayoffDate = datePtr(payoff)
	a.Priority = intPtr(priority)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

func queryAccounts(ctx context.Context, q querier, query string, args ...any) ([]core.Account, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return queryAccounts(ctx, r.db, `SELECT `+accountColumns+` FROM accounts ORDER BY snapshot_date DESC, rowid`)
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, notFound("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) AccountsByBusinessID(ctx context.Context, accountID string) ([]core.Account, error) {
	return queryAccounts(ctx, r.db,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = ? ORDER BY snapshot_date DESC, rowid`, accountID)
}

func (r *SQLiteRepository) AccountsAt(ctx context.Context, date core.Date) ([]core.Account, error) {
	return queryAccounts(ctx, r.db,
		`SELECT `+accountColumns+` FROM accounts WHERE snapshot_date = ? ORDER BY rowid`, date.String())
}

func (r *SQLiteRepository) SaveAccount(ctx context.Context, a core.Account) error {
	return upsertAccount(ctx, r.db, a)
}

func (r *SQLiteRepository) SaveAccounts(ctx context.Context, accs []core.Account) error {
	return r.withTx(ctx, func(q querier) error {
		for _, a := range accs {
			if err := upsertAccount(ctx, q, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertAccount(ctx context.Context, q querier, a core.Account) error {
	_, err := q.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			name = excluded.name,
			type = excluded.type,
			current_balance = excluded.current_balance,
			credit_limit = excluded.credit_limit,
			apr = excluded.apr,
			monthly_payment = excluded.monthly_payment,
			promo_expires = excluded.promo_expires,
			status = excluded.status,
			opened_date = excluded.opened_date,
			notes = excluded.notes,
			snapshot_date = excluded.snapshot_date,
			principal_per_month = excluded.principal_per_month,
			months_left = excluded.months_left,
			payoff_date = excluded.payoff_date,
			priority = excluded.priority,
			updated_at = excluded.updated_at`,
		a.ID, a.AccountID, a.Name, string(a.Type), a.CurrentBalance, nullFloat(a.CreditLimit), a.APR, a.MonthlyPayment,
		nullDate(a.PromoExpires), string(a.Status), nullDate(a.OpenedDate), a.Notes, a.SnapshotDate.String(),
		nullFloat(a.PrincipalPerMonth), nullInt(a.MonthsLeft), nullDate(a.PayoffDate), nullInt(a.Priority),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save account %s: %w", a.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("account", id)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAccountsAt(ctx context.Context, date core.Date) (int, error) {
	return deleteAccountsAt(ctx, r.db, date)
}

func deleteAccountsAt(ctx context.Context, q querier, date core.Date) (int, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE snapshot_date = ?`, date.String())
	if err != nil {
		return 0, fmt.Errorf("delete accounts at %s: %w", date, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
