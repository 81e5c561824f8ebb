package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"finplan/internal/cache"
	"finplan/internal/core"
	"finplan/internal/debt"
	"finplan/internal/store"

	"github.com/google/uuid"
)

const snapshotListKey = "snapshots:all"

// CreateResult is returned by SnapshotService.Create.
type CreateResult struct {
	Snapshot core.DebtSnapshot `json:"snapshot"`
	Accounts []core.Account    `json:"accounts"`
	Message  string            `json:"message"`
}

// YearGroup is one year's snapshots, newest first.
type YearGroup struct {
	Year      int                 `json:"year"`
	Snapshots []core.DebtSnapshot `json:"snapshots"`
}

// SnapshotService keeps each debt snapshot in step with its accounts. Reads
// fall back to the snapshot files once the primary store fails.
type SnapshotService struct {
	store  store.Store
	avail  *Availability
	events EventPublisher
	cache  cache.Cache[[]core.DebtSnapshot]

	now   func() time.Time
	newID func() string
}

// NewSnapshotService wires the service. events and listCache may be nil.
func NewSnapshotService(st store.Store, avail *Availability, events EventPublisher, listCache cache.Cache[[]core.DebtSnapshot]) *SnapshotService {
	return &SnapshotService{
		store:  st,
		avail:  avail,
		events: events,
		cache:  listCache,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ListSnapshots returns every snapshot, newest first.
func (s *SnapshotService) ListSnapshots(ctx context.Context) ([]core.DebtSnapshot, error) {
	if s.avail.PrimaryUp() {
		if cached, ok := s.cached(); ok {
			return cached, nil
		}
		snaps, err := s.store.ListSnapshots(ctx)
		if err == nil {
			s.remember(snaps)
			return snaps, nil
		}
		if !s.avail.failed(ctx, err) {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
	}
	files, err := s.avail.fallback()
	if err != nil {
		return nil, err
	}
	return files.Snapshots(ctx)
}

func (s *SnapshotService) SnapshotAt(ctx context.Context, date core.Date) (core.DebtSnapshot, error) {
	if s.avail.PrimaryUp() {
		snap, err := s.store.SnapshotAt(ctx, date)
		if err == nil {
			return snap, nil
		}
		if !s.avail.failed(ctx, err) {
			return core.DebtSnapshot{}, fmt.Errorf("get snapshot: %w", err)
		}
	}
	files, err := s.avail.fallback()
	if err != nil {
		return core.DebtSnapshot{}, err
	}
	return files.SnapshotAt(ctx, date)
}

// SnapshotsInYear returns snapshots dated within year, newest first.
func (s *SnapshotService) SnapshotsInYear(ctx context.Context, year int) ([]core.DebtSnapshot, error) {
	from, to := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
	if s.avail.PrimaryUp() {
		snaps, err := s.store.SnapshotsBetween(ctx, from, to)
		if err == nil {
			return nonEmpty(snaps), nil
		}
		if !s.avail.failed(ctx, err) {
			return nil, fmt.Errorf("list snapshots in %d: %w", year, err)
		}
	}
	files, err := s.avail.fallback()
	if err != nil {
		return nil, err
	}
	snaps, err := files.SnapshotsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return nonEmpty(snaps), nil
}

func nonEmpty(snaps []core.DebtSnapshot) []core.DebtSnapshot {
	if snaps == nil {
		return []core.DebtSnapshot{}
	}
	return snaps
}

// Years lists the distinct snapshot years, newest first.
func (s *SnapshotService) Years(ctx context.Context) ([]int, error) {
	all, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	years := []int{}
	for _, snap := range all {
		y := snap.SnapshotDate.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// GroupedByYear buckets snapshots by year, newest year first.
func (s *SnapshotService) GroupedByYear(ctx context.Context) ([]YearGroup, error) {
	all, err := s.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	years, err := s.Years(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]YearGroup, 0, len(years))
	for _, y := range years {
		g := YearGroup{Year: y}
		for _, snap := range all {
			if snap.SnapshotDate.Year() == y {
				g.Snapshots = append(g.Snapshots, snap)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *SnapshotService) Exists(ctx context.Context, date core.Date) (bool, error) {
	_, err := s.SnapshotAt(ctx, date)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create adds an all-zero snapshot at date. With cloneFrom set, the accounts at
// that date are copied over and the totals recomputed.
func (s *SnapshotService) Create(ctx context.Context, date core.Date, cloneFrom *core.Date) (CreateResult, error) {
	if err := s.avail.writable(); err != nil {
		return CreateResult{}, err
	}
	if err := date.Validate(); err != nil {
		return CreateResult{}, core.Invalid("snapshotDate is required")
	}
	date = date.FirstOfMonth()

	_, err := s.store.SnapshotAt(ctx, date)
	switch {
	case err == nil:
		return CreateResult{}, fmt.Errorf("create snapshot %s: %w", date, core.ErrSnapshotExists)
	case !errors.Is(err, core.ErrNotFound):
		return CreateResult{}, fmt.Errorf("check snapshot: %w", err)
	}

	var source []core.Account
	if cloneFrom != nil {
		from := cloneFrom.FirstOfMonth()
		if _, err := s.store.SnapshotAt(ctx, from); err != nil {
			return CreateResult{}, fmt.Errorf("clone source: %w", err)
		}
		if source, err = s.store.AccountsAt(ctx, from); err != nil {
			return CreateResult{}, fmt.Errorf("read clone source accounts: %w", err)
		}
	}

	now := s.now()
	snap := core.EmptySnapshot(date, now)
	snap.ID = s.newID()
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return CreateResult{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.invalidate()

	accs := debt.CloneAccounts(source, date, now, s.newID)
	if len(accs) > 0 {
		if err := s.store.SaveAccounts(ctx, accs); err != nil {
			return CreateResult{}, fmt.Errorf("save cloned accounts: %w", err)
		}
	}
	if cloneFrom != nil {
		if snap, err = s.recompute(ctx, snap, accs); err != nil {
			return CreateResult{}, err
		}
	}

	slog.InfoContext(ctx, "Created debt snapshot", "date", date, "cloned_accounts", len(accs))
	return CreateResult{Snapshot: snap, Accounts: accs, Message: "Snapshot created successfully"}, nil
}

// Recompute re-ranks the accounts at date and rewrites the snapshot totals.
func (s *SnapshotService) Recompute(ctx context.Context, date core.Date) (core.DebtSnapshot, error) {
	if err := s.avail.writable(); err != nil {
		return core.DebtSnapshot{}, err
	}
	snap, err := s.store.SnapshotAt(ctx, date)
	if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	accs, err := s.store.AccountsAt(ctx, date)
	if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("read accounts: %w", err)
	}
	return s.recompute(ctx, snap, accs)
}

// Refresh recomputes the snapshot at date, creating it first when missing.
// Account writes call it so the aggregate follows the rows.
func (s *SnapshotService) Refresh(ctx context.Context, date core.Date) (core.DebtSnapshot, error) {
	if err := s.avail.writable(); err != nil {
		return core.DebtSnapshot{}, err
	}
	snap, err := s.store.SnapshotAt(ctx, date)
	if errors.Is(err, core.ErrNotFound) {
		snap = core.EmptySnapshot(date, s.now())
		snap.ID = s.newID()
	} else if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	accs, err := s.store.AccountsAt(ctx, date)
	if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("read accounts: %w", err)
	}
	return s.recompute(ctx, snap, accs)
}

// recompute persists priorities first, then the totals.
func (s *SnapshotService) recompute(ctx context.Context, snap core.DebtSnapshot, accs []core.Account) (core.DebtSnapshot, error) {
	debt.AssignPriorities(accs)
	if len(accs) > 0 {
		if err := s.store.SaveAccounts(ctx, accs); err != nil {
			return core.DebtSnapshot{}, fmt.Errorf("save priorities: %w", err)
		}
	}
	debt.Aggregate(accs).Apply(&snap)
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Recomputed debt snapshot",
		"date", snap.SnapshotDate,
		"total_debt", snap.TotalDebt,
		"accounts", snap.TotalAccounts,
		"score", snap.PerformanceScore)

	if s.events != nil {
		if err := s.events.PublishSnapshotRecomputed(ctx, snap); err != nil {
			slog.WarnContext(ctx, "Failed to publish snapshot event", "date", snap.SnapshotDate, "error", err)
		}
	}
	return snap, nil
}

// BatchUpsert writes accounts into the existing snapshot at date and
// recomputes it. Accounts without an id are created.
func (s *SnapshotService) BatchUpsert(ctx context.Context, date core.Date, inputs []core.Account) (core.DebtSnapshot, error) {
	if err := s.avail.writable(); err != nil {
		return core.DebtSnapshot{}, err
	}
	date = date.FirstOfMonth()
	snap, err := s.store.SnapshotAt(ctx, date)
	if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	now := s.now()
	today := core.DateOf(now)
	accs := make([]core.Account, 0, len(inputs))
	for i, in := range inputs {
		in.SnapshotDate = date
		if err := in.AccountInput.Validate(); err != nil {
			return core.DebtSnapshot{}, fmt.Errorf("account %d: %w", i, err)
		}
		a := in.AccountInput.ToAccount()
		a.ID, a.CreatedAt = in.ID, now
		if a.ID == "" {
			a.ID = s.newID()
		} else if existing, err := s.store.GetAccount(ctx, a.ID); err == nil {
			a.CreatedAt = existing.CreatedAt
		}
		a.UpdatedAt = now
		debt.Prepare(&a, today)
		accs = append(accs, a)
	}
	if err := s.store.SaveAccounts(ctx, accs); err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("save accounts: %w", err)
	}

	all, err := s.store.AccountsAt(ctx, date)
	if err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("read accounts: %w", err)
	}
	return s.recompute(ctx, snap, all)
}

// Delete removes the accounts at date, then the snapshot.
func (s *SnapshotService) Delete(ctx context.Context, date core.Date) error {
	if err := s.avail.writable(); err != nil {
		return err
	}
	n, err := s.store.DeleteAccountsAt(ctx, date)
	if err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}
	err = s.store.DeleteSnapshotAt(ctx, date)
	s.invalidate()
	if errors.Is(err, core.ErrNotFound) && n > 0 {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Deleted debt snapshot", "date", date, "accounts", n)
	return nil
}

func (s *SnapshotService) cached() ([]core.DebtSnapshot, bool) {
	if s.cache == nil {
		return nil, false
	}
	snaps, ok := s.cache.Get(snapshotListKey)
	if !ok {
		return nil, false
	}
	out := make([]core.DebtSnapshot, len(snaps))
	for i, snap := range snaps {
		out[i] = snap.Clone()
	}
	return out, true
}

func (s *SnapshotService) remember(snaps []core.DebtSnapshot) {
	if s.cache == nil {
		return
	}
	kept := make([]core.DebtSnapshot, len(snaps))
	for i, snap := range snaps {
		kept[i] = snap.Clone()
	}
	s.cache.Set(snapshotListKey, kept)
}

func (s *SnapshotService) invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
