package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/core"
	"finplan/internal/retirement"
	"finplan/internal/store"

	"github.com/google/uuid"
)

// RetirementService evaluates plans against stored retirement history and
// manages the monthly retirement snapshots.
type RetirementService struct {
	store store.RetirementStore
	ages  AgeSource

	now   func() time.Time
	newID func() string
}

// AgeSource supplies the plan owner's age when a request has none.
type AgeSource interface {
	AgeOn(ctx context.Context, day core.Date) (float64, bool, error)
}

func NewRetirementService(st store.RetirementStore) *RetirementService {
	return &RetirementService{store: st, now: time.Now, newID: uuid.NewString}
}

// WithAgeSource sets where missing ages come from. A nil source keeps the default age.
func (s *RetirementService) WithAgeSource(src AgeSource) *RetirementService {
	s.ages = src
	return s
}

// Evaluate runs the plan for req. When the request carries accounts, the YTD
// analysis reads the stored history and, unless disabled, the request is saved
// as the snapshot of its month.
func (s *RetirementService) Evaluate(ctx context.Context, req retirement.Request) (retirement.Result, error) {
	month := s.monthOf(req.MonthYear)
	if req.CurrentAge == nil && s.ages != nil {
		age, ok, err := s.ages.AgeOn(ctx, core.DateOf(s.now()))
		if err != nil {
			slog.WarnContext(ctx, "Profile age unavailable, using default age", "error", err)
		} else if ok {
			req.CurrentAge = &age
		}
	}

	var hist retirement.History
	if len(req.Accounts) > 0 {
		var err error
		if hist, err = s.history(ctx, month); err != nil {
			return retirement.Result{}, err
		}
	}

	res := retirement.Evaluate(req, hist)
	slog.InfoContext(ctx, "Evaluated retirement plan",
		"month", month,
		"status", res.Status,
		"actual", res.ActualBalance,
		"target", res.TargetBalance)

	if req.ShouldPersist() {
		if _, err := s.persist(ctx, req, month); err != nil {
			return retirement.Result{}, err
		}
	}
	return res, nil
}

// monthOf parses "YYYY-MM", falling back to the current month.
func (s *RetirementService) monthOf(monthYear string) core.Date {
	if monthYear != "" {
		if d, err := core.ParseMonthYear(monthYear); err == nil {
			return d
		}
	}
	return core.DateOf(s.now()).FirstOfMonth()
}

// history loads the latest snapshot strictly before month and the snapshots
// from January 1 through month, inclusive.
func (s *RetirementService) history(ctx context.Context, month core.Date) (retirement.History, error) {
	all, err := s.store.ListRetirementSnapshots(ctx)
	if err != nil {
		return retirement.History{}, fmt.Errorf("list retirement snapshots: %w", err)
	}
	var hist retirement.History
	for i := range all {
		if all[i].SnapshotDate.Before(month.Time) {
			prev := all[i]
			hist.Previous = &prev
			break
		}
	}
	yearStart := core.NewDate(month.Year(), 1, 1)
	if hist.YearToDate, err = s.store.RetirementSnapshotsBetween(ctx, yearStart, month.AddMonths(1)); err != nil {
		return retirement.History{}, fmt.Errorf("load year-to-date snapshots: %w", err)
	}
	return hist, nil
}

func (s *RetirementService) persist(ctx context.Context, req retirement.Request, month core.Date) (core.RetirementSnapshot, error) {
	snap := core.RetirementSnapshot{
		ID:                   s.newID(),
		SnapshotDate:         month,
		CurrentAge:           req.CurrentAge,
		OneTimeAdditions:     req.OneTimeAdditions,
		TotalBalance:         req.ActualBalance(),
		TargetPortfolioValue: req.TargetPortfolioValue,
		AfterTaxMode:         req.AfterTaxMode,
		FlatTaxRate:          req.FlatTaxRate,
		TaxFreeRate:          req.TaxFreeRate,
		TaxDeferredRate:      req.TaxDeferredRate,
		TaxableRate:          req.TaxableRate,
		CreatedAt:            s.now(),
	}
	for _, a := range req.Accounts {
		snap.Accounts = append(snap.Accounts, core.AccountBalance{
			AccountType:  a.AccountType,
			GoalType:     a.GoalOrDefault(),
			Balance:      a.Balance,
			Contribution: a.Contribution,
		})
		snap.TotalContributions += a.Contribution
	}

	existing, err := s.store.RetirementSnapshotAt(ctx, month)
	switch {
	case err == nil:
		snap.ID, snap.CreatedAt = existing.ID, existing.CreatedAt
	case !errors.Is(err, core.ErrNotFound):
		return core.RetirementSnapshot{}, fmt.Errorf("get retirement snapshot: %w", err)
	}

	if err := s.store.SaveRetirementSnapshot(ctx, snap); err != nil {
		return core.RetirementSnapshot{}, fmt.Errorf("save retirement snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Saved retirement snapshot", "month", month, "accounts", len(snap.Accounts), "replaced", err == nil)
	return snap, nil
}

// History returns every retirement snapshot, newest first.
func (s *RetirementService) History(ctx context.Context) ([]core.RetirementSnapshot, error) {
	snaps, err := s.store.ListRetirementSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list retirement snapshots: %w", err)
	}
	return snaps, nil
}

// InYear returns the snapshots of one calendar year, oldest first.
func (s *RetirementService) InYear(ctx context.Context, year int) ([]core.RetirementSnapshot, error) {
	snaps, err := s.store.RetirementSnapshotsBetween(ctx, core.NewDate(year, 1, 1), core.NewDate(year+1, 1, 1))
	if err != nil {
		return nil, fmt.Errorf("retirement snapshots for %d: %w", year, err)
	}
	return snaps, nil
}

// AtMonth returns the snapshot for "YYYY-MM".
func (s *RetirementService) AtMonth(ctx context.Context, monthYear string) (core.RetirementSnapshot, error) {
	month, err := core.ParseMonthYear(monthYear)
	if err != nil {
		return core.RetirementSnapshot{}, err
	}
	return s.AtDate(ctx, month)
}

func (s *RetirementService) AtDate(ctx context.Context, date core.Date) (core.RetirementSnapshot, error) {
	snap, err := s.store.RetirementSnapshotAt(ctx, date)
	if err != nil {
		return core.RetirementSnapshot{}, fmt.Errorf("get retirement snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot that carries any money.
func (s *RetirementService) Latest(ctx context.Context) (core.RetirementSnapshot, error) {
	snaps, err := s.History(ctx)
	if err != nil {
		return core.RetirementSnapshot{}, err
	}
	for _, snap := range snaps {
		if snap.HasValue() {
			return snap, nil
		}
	}
	return core.RetirementSnapshot{}, fmt.Errorf("latest retirement snapshot: %w", core.ErrNotFound)
}

func (s *RetirementService) DeleteMonth(ctx context.Context, monthYear string) error {
	month, err := core.ParseMonthYear(monthYear)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRetirementSnapshotAt(ctx, month); err != nil {
		return fmt.Errorf("delete retirement snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Deleted retirement snapshot", "month", month)
	return nil
}

// Clone copies the source month onto the target month, replacing whatever the
// target held. The source must carry money.
func (s *RetirementService) Clone(ctx context.Context, sourceMonthYear, targetMonthYear string) (core.RetirementSnapshot, error) {
	from, err := core.ParseMonthYear(sourceMonthYear)
	if err != nil {
		return core.RetirementSnapshot{}, err
	}
	to, err := core.ParseMonthYear(targetMonthYear)
	if err != nil {
		return core.RetirementSnapshot{}, err
	}

	src, err := s.store.RetirementSnapshotAt(ctx, from)
	if err != nil {
		return core.RetirementSnapshot{}, fmt.Errorf("clone source: %w", err)
	}
	if !src.HasValue() {
		return core.RetirementSnapshot{}, fmt.Errorf("clone source %s has no balances: %w", from, core.ErrNotFound)
	}

	target := src.Clone()
	target.ID = s.newID()
	target.SnapshotDate = to
	target.CreatedAt = s.now()
	if err := s.store.SaveRetirementSnapshot(ctx, target); err != nil {
		return core.RetirementSnapshot{}, fmt.Errorf("save cloned snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Cloned retirement snapshot", "from", from, "to", to)
	return target, nil
}
