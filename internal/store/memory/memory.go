// Package memory is an in-process primary store used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"finplan/internal/core"
)

type Store struct {
	mu         sync.Mutex
	accounts   []core.Account
	snapshots  map[string]core.DebtSnapshot
	retirement map[string]core.RetirementSnapshot
	recurring  []core.RecurringExpense
	expenses   []core.Expense
	profiles   []core.Profile

	// failReads makes every read return an error; used to exercise fallback paths.
	failReads error
}

func New() *Store {
	return &Store{
		snapshots:  map[string]core.DebtSnapshot{},
		retirement: map[string]core.RetirementSnapshot{},
	}
}

// FailReads makes subsequent reads fail with err. A nil err restores normal reads.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = err
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failReads
}

func (s *Store) Close() error { return nil }

// Accounts

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	out := cloneAccounts(s.accounts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SnapshotDate.After(out[j].SnapshotDate.Time)
	})
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return core.Account{}, s.failReads
	}
	if i := s.accountIndex(id); i >= 0 {
		return s.accounts[i].Clone(), nil
	}
	return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
}

func (s *Store) AccountsByBusinessID(_ context.Context, accountID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	var out []core.Account
	for _, a := range s.accounts {
		if a.AccountID == accountID {
			out = append(out, a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SnapshotDate.After(out[j].SnapshotDate.Time)
	})
	return out, nil
}

func (s *Store) AccountsAt(_ context.Context, date core.Date) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	var out []core.Account
	for _, a := range s.accounts {
		if a.SnapshotDate.Equal(date.Time) {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *Store) SaveAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveAccount(a)
	return nil
}

func (s *Store) SaveAccounts(_ context.Context, accs []core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accs {
		s.saveAccount(a)
	}
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.accountIndex(id)
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	return nil
}

func (s *Store) DeleteAccountsAt(_ context.Context, date core.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteAccountsAt(date), nil
}

// Debt snapshots

func (s *Store) ListSnapshots(_ context.Context) ([]core.DebtSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	out := make([]core.DebtSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SnapshotDate.After(out[j].SnapshotDate.Time)
	})
	return out, nil
}

func (s *Store) SnapshotsBetween(ctx context.Context, from, to core.Date) ([]core.DebtSnapshot, error) {
	all, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	out := []core.DebtSnapshot{}
	for _, snap := range all {
		if d := snap.SnapshotDate; !d.Before(from.Time) && !d.After(to.Time) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *Store) SnapshotAt(_ context.Context, date core.Date) (core.DebtSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return core.DebtSnapshot{}, s.failReads
	}
	snap, ok := s.snapshots[date.String()]
	if !ok {
		return core.DebtSnapshot{}, fmt.Errorf("snapshot %s: %w", date, core.ErrNotFound)
	}
	return snap.Clone(), nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap core.DebtSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.SnapshotDate.String()] = snap.Clone()
	return nil
}

func (s *Store) DeleteSnapshotAt(_ context.Context, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.String()
	if _, ok := s.snapshots[key]; !ok {
		return fmt.Errorf("snapshot %s: %w", date, core.ErrNotFound)
	}
	delete(s.snapshots, key)
	return nil
}

func (s *Store) ReplaceSnapshot(_ context.Context, snap core.DebtSnapshot, accs []core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteAccountsAt(snap.SnapshotDate)
	delete(s.snapshots, snap.SnapshotDate.String())
	s.snapshots[snap.SnapshotDate.String()] = snap.Clone()
	for _, a := range accs {
		s.saveAccount(a)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = nil
	s.snapshots = map[string]core.DebtSnapshot{}
	return nil
}

// Retirement snapshots

func (s *Store) ListRetirementSnapshots(_ context.Context) ([]core.RetirementSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	out := make([]core.RetirementSnapshot, 0, len(s.retirement))
	for _, r := range s.retirement {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SnapshotDate.After(out[j].SnapshotDate.Time)
	})
	return out, nil
}

func (s *Store) RetirementSnapshotAt(_ context.Context, date core.Date) (core.RetirementSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return core.RetirementSnapshot{}, s.failReads
	}
	r, ok := s.retirement[date.String()]
	if !ok {
		return core.RetirementSnapshot{}, fmt.Errorf("retirement snapshot %s: %w", date, core.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *Store) RetirementSnapshotsBetween(_ context.Context, from, to core.Date) ([]core.RetirementSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	var out []core.RetirementSnapshot
	for _, r := range s.retirement {
		d := r.SnapshotDate
		if !d.Before(from.Time) && d.Before(to.Time) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SnapshotDate.Before(out[j].SnapshotDate.Time)
	})
	return out, nil
}

func (s *Store) SaveRetirementSnapshot(_ context.Context, r core.RetirementSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retirement[r.SnapshotDate.String()] = r.Clone()
	return nil
}

func (s *Store) DeleteRetirementSnapshotAt(_ context.Context, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.String()
	if _, ok := s.retirement[key]; !ok {
		return fmt.Errorf("retirement snapshot %s: %w", date, core.ErrNotFound)
	}
	delete(s.retirement, key)
	return nil
}

// Recurring expenses

func (s *Store) ListRecurring(_ context.Context) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	out := make([]core.RecurringExpense, len(s.recurring))
	for i, r := range s.recurring {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) GetRecurring(_ context.Context, id string) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return core.RecurringExpense{}, s.failReads
	}
	for _, r := range s.recurring {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return core.RecurringExpense{}, fmt.Errorf("recurring expense %s: %w", id, core.ErrNotFound)
}

func (s *Store) SaveRecurring(_ context.Context, r core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == r.ID {
			s.recurring[i] = r.Clone()
			return nil
		}
	}
	s.recurring = append(s.recurring, r.Clone())
	return nil
}

func (s *Store) DeleteRecurring(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recurring {
		if s.recurring[i].ID == id {
			s.recurring = append(s.recurring[:i], s.recurring[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("recurring expense %s: %w", id, core.ErrNotFound)
}

// Profiles

func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return nil, s.failReads
	}
	out := make([]core.Profile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads != nil {
		return core.Profile{}, s.failReads
	}
	for _, p := range s.profiles {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return core.Profile{}, fmt.Errorf("profile %s: %w", id, core.ErrNotFound)
}

func (s *Store) SaveProfile(_ context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.profiles {
		if s.profiles[i].ID == p.ID {
			s.profiles[i] = p.Clone()
			return nil
		}
	}
	s.profiles = append(s.profiles, p.Clone())
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("profile %s: %w", id, core.ErrNotFound)
}

// Expenses

func (s *Store) AddExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
}

func (s *Store) ExpensesIn(_ context.Context, month core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Date.SameMonth(month) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) accountIndex(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) saveAccount(a core.Account) {
	if i := s.accountIndex(a.ID); i >= 0 {
		s.accounts[i] = a.Clone()
		return
	}
	s.accounts = append(s.accounts, a.Clone())
}

func (s *Store) deleteAccountsAt(date core.Date) int {
	kept := s.accounts[:0]
	removed := 0
	for _, a := range s.accounts {
		if a.SnapshotDate.Equal(date.Time) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.accounts = kept
	return removed
}

func cloneAccounts(in []core.Account) []core.Account {
	out := make([]core.Account, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
