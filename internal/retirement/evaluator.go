// Package retirement evaluates a portfolio against the fixed target path and
// attributes year-to-date growth per account.
package retirement

import (
	"math"

	"finplan/internal/core"
)

const (
	StartAge         = 33.0
	TargetAge        = 50.0
	StartingBalance  = 94_000.0
	BaseContribution = 2_600.0
	TargetPortfolio  = 1_270_000.0
	AnnualReturn     = 0.07
	MonthlyRate      = AnnualReturn / 12
)

type Status string

const (
	Ahead          Status = "Ahead"
	OnTrack        Status = "On Track"
	SlightlyBehind Status = "Slightly Behind"
	Behind         Status = "Behind"
)

// Request is a plan evaluation input.
type Request struct {
	CurrentAge                  *float64              `json:"currentAge"`
	MonthYear                   string                `json:"monthYear"`
	CurrentTotalInvestedBalance *float64              `json:"currentTotalInvestedBalance"`
	TargetPortfolioValue        *float64              `json:"targetPortfolioValue"`
	ActualMonthlyContribution   *float64              `json:"actualMonthlyContribution"`
	OneTimeAdditions            *float64              `json:"oneTimeAdditions"`
	Accounts                    []core.AccountBalance `json:"accounts"`
	AfterTaxMode                *bool                 `json:"afterTaxMode"`
	FlatTaxRate                 *float64              `json:"flatTaxRate"`
	TaxFreeRate                 *float64              `json:"taxFreeRate"`
	TaxDeferredRate             *float64              `json:"taxDeferredRate"`
	TaxableRate                 *float64              `json:"taxableRate"`
	PersistSnapshot             *bool                 `json:"persistSnapshot"`
}

// ShouldPersist reports whether the request asks for a snapshot upsert.
func (r Request) ShouldPersist() bool {
	if len(r.Accounts) == 0 {
		return false
	}
	return r.PersistSnapshot == nil || *r.PersistSnapshot
}

// Age returns the current age, defaulting to StartAge.
func (r Request) Age() float64 {
	if r.CurrentAge == nil {
		return StartAge
	}
	return *r.CurrentAge
}

// ActualBalance sums non-education accounts, or falls back to the legacy scalar.
func (r Request) ActualBalance() float64 {
	if len(r.Accounts) > 0 {
		total := 0.0
		for _, a := range r.Accounts {
			if !a.IsEducation() {
				total += a.Balance
			}
		}
		return total
	}
	if r.CurrentTotalInvestedBalance != nil {
		return *r.CurrentTotalInvestedBalance
	}
	return 0
}

// Result is the evaluated plan.
type Result struct {
	TargetBalance               float64      `json:"targetBalance"`
	ActualBalance               float64      `json:"actualBalance"`
	DifferenceAmount            float64      `json:"differenceAmount"`
	DifferencePercent           float64      `json:"differencePercent"`
	Status                      Status       `json:"status"`
	RemainingMonths             int          `json:"remainingMonths"`
	RequiredMonthlyContribution *float64     `json:"requiredMonthlyContribution"`
	Commentary                  string       `json:"commentary"`
	BonusAdditions              *float64     `json:"bonusAdditions,omitempty"`
	BufferMonths                *float64     `json:"bufferMonths,omitempty"`
	AccountScorecard            []Scorecard  `json:"accountScorecard,omitempty"`
	GrowthAttribution           *Attribution `json:"growthAttribution,omitempty"`
	YTDSummary                  *YTDSummary  `json:"ytdSummary,omitempty"`
}

// MonthsElapsed is the number of plan months since StartAge, never negative.
func MonthsElapsed(age float64) int {
	return int(math.Max(0, math.Round((age-StartAge)*12)))
}

// RemainingMonths is the number of months until TargetAge, never negative.
func RemainingMonths(age float64) int {
	return int(math.Max(0, math.Round((TargetAge-age)*12)))
}

// TargetBalance is the on-plan balance after n months of base contributions.
func TargetBalance(n int) float64 {
	if n <= 0 {
		return StartingBalance
	}
	if MonthlyRate == 0 {
		return StartingBalance + BaseContribution*float64(n)
	}
	g := math.Pow(1+MonthlyRate, float64(n))
	return StartingBalance*g + BaseContribution*(g-1)/MonthlyRate
}

// Classify maps the difference from target to a status. Thresholds are
// one-sided: any surplus is Ahead.
func Classify(diff, target float64) Status {
	switch {
	case diff >= 0:
		return Ahead
	case diff >= -0.05*target:
		return OnTrack
	case diff >= -0.10*target:
		return SlightlyBehind
	default:
		return Behind
	}
}

// RequiredContribution back-solves the monthly contribution that grows actual
// to target over n months.
func RequiredContribution(actual float64, n int, target float64) float64 {
	if n <= 0 {
		return BaseContribution
	}
	if MonthlyRate == 0 {
		return (target - actual) / float64(n)
	}
	g := math.Pow(1+MonthlyRate, float64(n))
	denom := g - 1
	if denom == 0 {
		return BaseContribution
	}
	return (target - actual*g) * MonthlyRate / denom
}

// BonusAdditions is contribution above base plus positive one-time additions.
func BonusAdditions(actualContribution, oneTime *float64) float64 {
	bonus := 0.0
	if actualContribution != nil && *actualContribution > BaseContribution {
		bonus += *actualContribution - BaseContribution
	}
	if oneTime != nil && *oneTime > 0 {
		bonus += *oneTime
	}
	return bonus
}

// Evaluate runs the projection and, when accounts are present, the YTD
// attribution against hist.
func Evaluate(req Request, hist History) Result {
	age := req.Age()
	elapsed := MonthsElapsed(age)
	remaining := RemainingMonths(age)

	actual := req.ActualBalance()
	target := TargetBalance(elapsed)
	diff := actual - target
	diffPct := 0.0
	if target != 0 {
		diffPct = diff / target * 100
	}
	status := Classify(diff, target)

	res := Result{
		TargetBalance:     core.Round2(target),
		ActualBalance:     core.Round2(actual),
		DifferenceAmount:  core.Round2(diff),
		DifferencePercent: core.Round2(diffPct),
		Status:            status,
		RemainingMonths:   remaining,
	}

	if (status == SlightlyBehind || status == Behind) && remaining > 0 {
		goal := TargetPortfolio
		if req.TargetPortfolioValue != nil {
			goal = *req.TargetPortfolioValue
		}
		r := RequiredContribution(actual, remaining, goal)
		res.RequiredMonthlyContribution = core.Round2Ptr(math.Max(BaseContribution, r))
	}

	bonus := BonusAdditions(req.ActualMonthlyContribution, req.OneTimeAdditions)
	if bonus > 0 {
		res.BonusAdditions = core.Round2Ptr(bonus)
	}
	if status == Ahead {
		res.BufferMonths = core.Round2Ptr(diff / BaseContribution)
	}

	if len(req.Accounts) > 0 {
		a := Attribute(req.Accounts, hist)
		res.AccountScorecard = a.Scorecards
		res.GrowthAttribution = &a.Attribution
		res.YTDSummary = &a.Summary
	}

	res.Commentary = Commentary(res)
	return res
}
