package retirement

import (
	"testing"

	"finplan/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(date core.Date, accs ...core.AccountBalance) core.RetirementSnapshot {
	return core.RetirementSnapshot{SnapshotDate: date, Accounts: accs}
}

func TestAttribute(t *testing.T) {
	jan := snapshot(core.NewDate(2025, 1, 1),
		core.AccountBalance{AccountType: "401k", Balance: 8000, Contribution: 500},
		core.AccountBalance{AccountType: "Roth", Balance: 4000, Contribution: 500},
	)
	sep := snapshot(core.NewDate(2025, 9, 1),
		core.AccountBalance{AccountType: "401k", Balance: 10000, Contribution: 500},
		core.AccountBalance{AccountType: "Roth", Balance: 5100},
		core.AccountBalance{AccountType: "529", GoalType: core.GoalEducation, Balance: 1800, Contribution: 100},
	)
	current := []core.AccountBalance{
		{AccountType: "401k", Balance: 11000, Contribution: 500},
		{AccountType: "Roth", Balance: 5000},
		{AccountType: "529", GoalType: core.GoalEducation, Balance: 2000, Contribution: 100},
	}

	got := Attribute(current, History{Previous: &sep, YearToDate: []core.RetirementSnapshot{jan, sep}})
	require.Len(t, got.Scorecards, 3)

	k := got.Scorecards[0]
	assert.Equal(t, core.GoalRetirement, k.GoalType)
	assert.Equal(t, 1500.0, k.YTDContributions)
	assert.Equal(t, 1500.0, k.YTDGrowthDollars)
	assert.Equal(t, 18.75, k.YTDGrowthPercent)
	assert.Equal(t, AccountLeading, k.Status)

	roth := got.Scorecards[1]
	assert.Equal(t, 500.0, roth.YTDContributions)
	assert.Equal(t, 12.5, roth.YTDGrowthPercent)
	assert.Equal(t, AccountOnPlan, roth.Status)

	edu := got.Scorecards[2]
	assert.Equal(t, 200.0, edu.YTDContributions)
	assert.Equal(t, 0.0, edu.YTDGrowthDollars)
	assert.Equal(t, AccountBehind, edu.Status)

	assert.Equal(t, "401k", got.Attribution.TopGrowthDriver)
	assert.Equal(t, "Roth", got.Attribution.WeakestContributor)
	assert.Equal(t, 47.62, got.Attribution.MarketGrowthPercent)
	assert.Equal(t, 52.38, got.Attribution.ContributionPercent)

	assert.Equal(t, 2200.0, got.Summary.TotalYTDContributions)
	assert.Equal(t, 2000.0, got.Summary.TotalYTDGrowth)
	assert.Equal(t, 11.83, got.Summary.YTDGrowthPercent)
}

func TestAttribute_NoHistory(t *testing.T) {
	got := Attribute([]core.AccountBalance{
		{AccountType: "401k", Balance: 1000, Contribution: 100},
		{AccountType: "HSA", Balance: 0},
	}, History{})

	assert.Equal(t, 0.0, got.Summary.YTDGrowthPercent)
	assert.Equal(t, 0.0, got.Scorecards[0].YTDGrowthPercent, "no start balance")
	assert.Equal(t, AccountOnPlan, got.Scorecards[0].Status)
	assert.Equal(t, AccountBehind, got.Scorecards[1].Status, "empty account")
}

func TestAttribute_TiesKeepFirst(t *testing.T) {
	got := Attribute([]core.AccountBalance{
		{AccountType: "A", Balance: 100},
		{AccountType: "B", Balance: 100},
	}, History{})
	assert.Equal(t, "A", got.Attribution.TopGrowthDriver)
	assert.Equal(t, "A", got.Attribution.WeakestContributor)
}

func TestAttribute_Empty(t *testing.T) {
	got := Attribute(nil, History{})
	assert.Equal(t, noDriver, got.Attribution.TopGrowthDriver)
	assert.Equal(t, noDriver, got.Attribution.WeakestContributor)
	assert.Empty(t, got.Scorecards)
}
