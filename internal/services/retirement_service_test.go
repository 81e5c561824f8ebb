package services

import (
	"context"
	"testing"

	"finplan/internal/core"
	"finplan/internal/retirement"
	"finplan/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetirementService(t *testing.T) (*RetirementService, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewRetirementService(st)
	svc.now, svc.newID = fixedNow, sequence("ret")
	return svc, st
}

func seedRetirement(t *testing.T, st *memory.Store, month string, balance, contribution float64) {
	t.Helper()
	date, err := core.ParseMonthYear(month)
	require.NoError(t, err)
	require.NoError(t, st.SaveRetirementSnapshot(context.Background(), core.RetirementSnapshot{
		ID:                 "seed-" + month,
		SnapshotDate:       date,
		Accounts:           []core.AccountBalance{{AccountType: "401k", GoalType: core.GoalRetirement, Balance: balance, Contribution: contribution}},
		TotalBalance:       balance,
		TotalContributions: contribution,
		CreatedAt:          testNow,
	}))
}

func ptr[T any](v T) *T { return &v }

func TestRetirementService_EvaluateWithHistory(t *testing.T) {
	ctx := context.Background()
	svc, st := newRetirementService(t)
	seedRetirement(t, st, "2024-12", 97000, 1000)
	seedRetirement(t, st, "2025-01", 100000, 1000)
	seedRetirement(t, st, "2025-02", 103000, 1000)

	res, err := svc.Evaluate(ctx, retirement.Request{
		CurrentAge: ptr(35.0),
		MonthYear:  "2025-03",
		Accounts: []core.AccountBalance{
			{AccountType: "401k", Balance: 106000, Contribution: 1000},
			{AccountType: "529", GoalType: core.GoalEducation, Balance: 5000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 106000.0, res.ActualBalance, "education accounts stay out of the total")
	require.NotNil(t, res.YTDSummary)
	require.Len(t, res.AccountScorecard, 2)

	k := res.AccountScorecard[0]
	assert.Equal(t, core.GoalRetirement, k.GoalType)
	assert.Equal(t, 3000.0, k.YTDContributions)
	assert.Equal(t, 3000.0, k.YTDGrowthDollars)
	assert.Equal(t, 3.0, k.YTDGrowthPercent)
	assert.Equal(t, "529", res.GrowthAttribution.TopGrowthDriver)
	assert.Equal(t, "401k", res.GrowthAttribution.WeakestContributor)
	assert.NotEmpty(t, res.Commentary)

	saved, err := svc.AtMonth(ctx, "2025-03")
	require.NoError(t, err)
	assert.Equal(t, 106000.0, saved.TotalBalance)
	assert.Equal(t, 1000.0, saved.TotalContributions)
	require.Len(t, saved.Accounts, 2)
	assert.Equal(t, core.GoalRetirement, saved.Accounts[0].GoalType)
	assert.Equal(t, testNow, saved.CreatedAt)
}

func TestRetirementService_YearToDateIncludesEvaluatedMonth(t *testing.T) {
	ctx := context.Background()
	svc, st := newRetirementService(t)
	seedRetirement(t, st, "2024-12", 40000, 500)
	seedRetirement(t, st, "2025-01", 41000, 500)
	seedRetirement(t, st, "2025-03", 42000, 500)

	res, err := svc.Evaluate(ctx, retirement.Request{
		MonthYear:       "2025-03",
		Accounts:        []core.AccountBalance{{AccountType: "401k", Balance: 43000, Contribution: 500}},
		PersistSnapshot: ptr(false),
	})
	require.NoError(t, err)
	require.Len(t, res.AccountScorecard, 1)
	assert.Equal(t, 1500.0, res.AccountScorecard[0].YTDContributions)
	assert.Equal(t, 500.0, res.AccountScorecard[0].YTDGrowthDollars, "43000 - 41000 start - 1500 contributed")
	require.NotNil(t, res.YTDSummary)
	assert.Equal(t, 1500.0, res.YTDSummary.TotalYTDContributions)
}

func TestRetirementService_EvaluateUpsertsMonth(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRetirementService(t)
	req := retirement.Request{
		MonthYear: "2025-10",
		Accounts:  []core.AccountBalance{{AccountType: "Roth IRA", Balance: 50000, Contribution: 500}},
	}

	_, err := svc.Evaluate(ctx, req)
	require.NoError(t, err)
	first, err := svc.AtMonth(ctx, "2025-10")
	require.NoError(t, err)

	req.Accounts[0].Balance = 51000
	_, err = svc.Evaluate(ctx, req)
	require.NoError(t, err)
	second, err := svc.AtMonth(ctx, "2025-10")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 51000.0, second.TotalBalance)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRetirementService_EvaluateWithoutPersist(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRetirementService(t)

	res, err := svc.Evaluate(ctx, retirement.Request{CurrentTotalInvestedBalance: ptr(90000.0)})
	require.NoError(t, err)
	assert.Equal(t, retirement.OnTrack, res.Status)
	assert.Nil(t, res.YTDSummary)

	_, err = svc.Evaluate(ctx, retirement.Request{
		Accounts:        []core.AccountBalance{{AccountType: "401k", Balance: 1}},
		PersistSnapshot: ptr(false),
	})
	require.NoError(t, err)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRetirementService_LatestSkipsEmpty(t *testing.T) {
	ctx := context.Background()
	svc, st := newRetirementService(t)

	_, err := svc.Latest(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)

	seedRetirement(t, st, "2025-08", 90000, 0)
	seedRetirement(t, st, "2025-09", 0, 0)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", latest.SnapshotDate.String())
}

func TestRetirementService_InYear(t *testing.T) {
	ctx := context.Background()
	svc, st := newRetirementService(t)
	seedRetirement(t, st, "2024-12", 1, 0)
	seedRetirement(t, st, "2025-03", 2, 0)
	seedRetirement(t, st, "2025-01", 3, 0)

	snaps, err := svc.InYear(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "2025-01-01", snaps[0].SnapshotDate.String())
}

func TestRetirementService_CloneAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, st := newRetirementService(t)
	seedRetirement(t, st, "2025-09", 120000, 2000)
	seedRetirement(t, st, "2025-07", 0, 0)

	cloned, err := svc.Clone(ctx, "2025-09", "2025-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", cloned.SnapshotDate.String())
	assert.Equal(t, 120000.0, cloned.TotalBalance)
	assert.NotEqual(t, "seed-2025-09", cloned.ID)

	_, err = svc.Clone(ctx, "2025-07", "2025-11")
	assert.ErrorIs(t, err, core.ErrNotFound, "empty source")
	_, err = svc.Clone(ctx, "2020-01", "2025-11")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.Clone(ctx, "September", "2025-11")
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, svc.DeleteMonth(ctx, "2025-10"))
	_, err = svc.AtMonth(ctx, "2025-10")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteMonth(ctx, "2025-10"), core.ErrNotFound)
}
