package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"finplan/internal/core"
	"finplan/internal/debt"
	"finplan/internal/store"

	"github.com/google/uuid"
)

// AccountService manages the monthly account rows. Every write refreshes the
// snapshot the row belongs to.
type AccountService struct {
	store     store.Store
	avail     *Availability
	snapshots *SnapshotService

	now   func() time.Time
	newID func() string
}

func NewAccountService(st store.Store, avail *Availability, snapshots *SnapshotService) *AccountService {
	return &AccountService{
		store:     st,
		avail:     avail,
		snapshots: snapshots,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	if s.avail.PrimaryUp() {
		accs, err := s.store.ListAccounts(ctx)
		if err == nil {
			return accs, nil
		}
		if !s.avail.failed(ctx, err) {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
	}
	files, err := s.avail.fallback()
	if err != nil {
		return nil, err
	}
	return files.Accounts(ctx)
}

func (s *AccountService) GetAccount(ctx context.Context, id string) (core.Account, error) {
	if s.avail.PrimaryUp() {
		a, err := s.store.GetAccount(ctx, id)
		if err == nil {
			return a, nil
		}
		if !s.avail.failed(ctx, err) {
			return core.Account{}, fmt.Errorf("get account: %w", err)
		}
	}
	all, err := s.ListAccounts(ctx)
	if err != nil {
		return core.Account{}, err
	}
	for _, a := range all {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
}

// LatestByBusinessID returns the newest monthly row carrying accountID.
func (s *AccountService) LatestByBusinessID(ctx context.Context, accountID string) (core.Account, error) {
	var rows []core.Account
	if s.avail.PrimaryUp() {
		var err error
		rows, err = s.store.AccountsByBusinessID(ctx, accountID)
		if err != nil && !s.avail.failed(ctx, err) {
			return core.Account{}, fmt.Errorf("find account: %w", err)
		}
	}
	if !s.avail.PrimaryUp() {
		all, err := s.ListAccounts(ctx)
		if err != nil {
			return core.Account{}, err
		}
		for _, a := range all {
			if a.AccountID == accountID {
				rows = append(rows, a)
			}
		}
	}
	if len(rows) == 0 {
		return core.Account{}, fmt.Errorf("account %s: %w", accountID, core.ErrNotFound)
	}
	latest := rows[0]
	for _, a := range rows[1:] {
		if a.SnapshotDate.After(latest.SnapshotDate.Time) {
			latest = a
		}
	}
	return latest, nil
}

// AccountsAt returns the accounts of one snapshot in stored order.
func (s *AccountService) AccountsAt(ctx context.Context, date core.Date) ([]core.Account, error) {
	if s.avail.PrimaryUp() {
		accs, err := s.store.AccountsAt(ctx, date)
		if err == nil {
			return accs, nil
		}
		if !s.avail.failed(ctx, err) {
			return nil, fmt.Errorf("accounts at %s: %w", date, err)
		}
	}
	files, err := s.avail.fallback()
	if err != nil {
		return nil, err
	}
	return files.AccountsAt(ctx, date)
}

func (s *AccountService) ByType(ctx context.Context, kind core.AccountType) ([]core.Account, error) {
	return s.filter(ctx, func(a core.Account) bool { return a.Type == kind })
}

// ActiveByType lists the active accounts of one kind.
func (s *AccountService) ActiveByType(ctx context.Context, kind core.AccountType) ([]core.Account, error) {
	return s.filter(ctx, func(a core.Account) bool { return a.Type == kind && a.IsActive() })
}

func (s *AccountService) ByStatus(ctx context.Context, status core.AccountStatus) ([]core.Account, error) {
	return s.filter(ctx, func(a core.Account) bool { return a.Status == status })
}

// HighestInterest lists active accounts by APR, highest first.
func (s *AccountService) HighestInterest(ctx context.Context) ([]core.Account, error) {
	active, err := s.filter(ctx, core.Account.IsActive)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].APR > active[j].APR })
	return active, nil
}

// TotalDebt sums active balances in the latest snapshot.
func (s *AccountService) TotalDebt(ctx context.Context) (float64, error) {
	return s.totalWhere(ctx, func(core.Account) bool { return true })
}

// TotalDebtByType sums active balances of one kind in the latest snapshot.
func (s *AccountService) TotalDebtByType(ctx context.Context, kind core.AccountType) (float64, error) {
	return s.totalWhere(ctx, func(a core.Account) bool { return a.Type == kind })
}

func (s *AccountService) totalWhere(ctx context.Context, keep func(core.Account) bool) (float64, error) {
	all, err := s.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	var latest core.Date
	for _, a := range all {
		if a.SnapshotDate.After(latest.Time) {
			latest = a.SnapshotDate
		}
	}
	total := 0.0
	for _, a := range all {
		if a.SnapshotDate.Equal(latest.Time) && a.IsActive() && keep(a) {
			total += a.CurrentBalance
		}
	}
	return core.Round2(total), nil
}

func (s *AccountService) filter(ctx context.Context, keep func(core.Account) bool) ([]core.Account, error) {
	all, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := []core.Account{}
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create validates, enriches and stores a new account, then refreshes its snapshot.
func (s *AccountService) Create(ctx context.Context, in core.AccountInput) (core.Account, error) {
	if err := s.avail.writable(); err != nil {
		return core.Account{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}

	now := s.now()
	a := in.ToAccount()
	a.ID = s.newID()
	a.CreatedAt, a.UpdatedAt = now, now
	debt.Prepare(&a, core.DateOf(now))

	if err := s.store.SaveAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	slog.InfoContext(ctx, "Created account", "id", a.ID, "account_id", a.AccountID, "snapshot", a.SnapshotDate)

	return s.refreshed(ctx, a, a.SnapshotDate), nil
}

// Update replaces the client fields of account id and re-derives the rest.
func (s *AccountService) Update(ctx context.Context, id string, in core.AccountInput) (core.Account, error) {
	if err := s.avail.writable(); err != nil {
		return core.Account{}, err
	}
	existing, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	if in.SnapshotDate.IsZero() {
		in.SnapshotDate = existing.SnapshotDate
	}
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}

	now := s.now()
	a := in.ToAccount()
	a.ID = id
	a.CreatedAt, a.UpdatedAt = existing.CreatedAt, now
	debt.Prepare(&a, core.DateOf(now))

	if err := s.store.SaveAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	slog.InfoContext(ctx, "Updated account", "id", id, "balance", a.CurrentBalance)

	a = s.refreshed(ctx, a, a.SnapshotDate)
	if !existing.SnapshotDate.Equal(a.SnapshotDate.Time) {
		s.refresh(ctx, existing.SnapshotDate)
	}
	return a, nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	if err := s.avail.writable(); err != nil {
		return err
	}
	existing, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	slog.InfoContext(ctx, "Deleted account", "id", id)
	s.refresh(ctx, existing.SnapshotDate)
	return nil
}

// refreshed refreshes date and returns a re-read of a so the response carries
// the recomputed priority.
func (s *AccountService) refreshed(ctx context.Context, a core.Account, date core.Date) core.Account {
	if !s.refresh(ctx, date) {
		return a
	}
	if fresh, err := s.store.GetAccount(ctx, a.ID); err == nil {
		return fresh
	}
	return a
}

func (s *AccountService) refresh(ctx context.Context, date core.Date) bool {
	if s.snapshots == nil {
		return false
	}
	if _, err := s.snapshots.Refresh(ctx, date); err != nil {
		slog.WarnContext(ctx, "Failed to refresh snapshot after account write", "date", date, "error", err)
		return false
	}
	return true
}
