// Package store defines the persistence ports the services read and write
// through. Lookups that address a missing row return core.ErrNotFound.
package store

import (
	"context"

	"finplan/internal/core"
)

type (
	AccountStore interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		GetAccount(ctx context.Context, id string) (core.Account, error)
		// AccountsByBusinessID returns every monthly row carrying the slug, newest first.
		AccountsByBusinessID(ctx context.Context, accountID string) ([]core.Account, error)
		AccountsAt(ctx context.Context, date core.Date) ([]core.Account, error)
		SaveAccount(ctx context.Context, a core.Account) error
		SaveAccounts(ctx context.Context, accs []core.Account) error
		DeleteAccount(ctx context.Context, id string) error
		DeleteAccountsAt(ctx context.Context, date core.Date) (int, error)
	}

	SnapshotStore interface {
		// ListSnapshots returns every debt snapshot, newest first.
		ListSnapshots(ctx context.Context) ([]core.DebtSnapshot, error)
		SnapshotAt(ctx context.Context, date core.Date) (core.DebtSnapshot, error)
		// SnapshotsBetween returns snapshots with from <= date <= to, newest first.
		SnapshotsBetween(ctx context.Context, from, to core.Date) ([]core.DebtSnapshot, error)
		// SaveSnapshot inserts or replaces the snapshot keyed by its date.
		SaveSnapshot(ctx context.Context, s core.DebtSnapshot) error
		DeleteSnapshotAt(ctx context.Context, date core.Date) error
		// ReplaceSnapshot drops the accounts and snapshot at s.SnapshotDate and writes the given ones.
		ReplaceSnapshot(ctx context.Context, s core.DebtSnapshot, accs []core.Account) error
		// Clear removes every account and debt snapshot.
		Clear(ctx context.Context) error
	}

	RetirementStore interface {
		// ListRetirementSnapshots returns every retirement snapshot, newest first.
		ListRetirementSnapshots(ctx context.Context) ([]core.RetirementSnapshot, error)
		RetirementSnapshotAt(ctx context.Context, date core.Date) (core.RetirementSnapshot, error)
		// RetirementSnapshotsBetween returns snapshots in [from, to), oldest first.
		RetirementSnapshotsBetween(ctx context.Context, from, to core.Date) ([]core.RetirementSnapshot, error)
		SaveRetirementSnapshot(ctx context.Context, s core.RetirementSnapshot) error
		DeleteRetirementSnapshotAt(ctx context.Context, date core.Date) error
	}

	RecurringStore interface {
		ListRecurring(ctx context.Context) ([]core.RecurringExpense, error)
		GetRecurring(ctx context.Context, id string) (core.RecurringExpense, error)
		SaveRecurring(ctx context.Context, r core.RecurringExpense) error
		DeleteRecurring(ctx context.Context, id string) error
	}

	ProfileStore interface {
		// ListProfiles returns every profile, oldest first.
		ListProfiles(ctx context.Context) ([]core.Profile, error)
		GetProfile(ctx context.Context, id string) (core.Profile, error)
		SaveProfile(ctx context.Context, p core.Profile) error
		DeleteProfile(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		AddExpense(ctx context.Context, e core.Expense) error
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		// ExpensesIn returns the expenses dated within month, oldest first.
		ExpensesIn(ctx context.Context, month core.Date) ([]core.Expense, error)
	}

	// Store is a complete primary backend.
	Store interface {
		AccountStore
		SnapshotStore
		RetirementStore
		RecurringStore
		ExpenseStore
		ProfileStore
		Ping(ctx context.Context) error
		Close() error
	}
)
