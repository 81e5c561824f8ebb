package core

import (
	"strings"
	"time"
)

const (
	GoalRetirement = "RETIREMENT"
	GoalEducation  = "EDUCATION"
)

// AccountBalance is one investment account inside a retirement snapshot.
type AccountBalance struct {
	AccountType     string   `json:"accountType"`
	GoalType        string   `json:"goalType"`
	Balance         float64  `json:"balance"`
	Contribution    float64  `json:"contribution"`
	PreviousBalance *float64 `json:"previousBalance,omitempty"`
}

// IsEducation reports whether the account is excluded from retirement totals.
func (b AccountBalance) IsEducation() bool {
	return strings.EqualFold(b.GoalType, GoalEducation)
}

// GoalOrDefault returns GoalType, defaulting to RETIREMENT.
func (b AccountBalance) GoalOrDefault() string {
	if strings.TrimSpace(b.GoalType) == "" {
		return GoalRetirement
	}
	return b.GoalType
}

// RetirementSnapshot is the portfolio state at a first-of-month date.
type RetirementSnapshot struct {
	ID                   string           `json:"id"`
	SnapshotDate         Date             `json:"snapshotDate"`
	CurrentAge           *float64         `json:"currentAge,omitempty"`
	Accounts             []AccountBalance `json:"accounts"`
	OneTimeAdditions     *float64         `json:"oneTimeAdditions,omitempty"`
	TotalBalance         float64          `json:"totalBalance"`
	TotalContributions   float64          `json:"totalContributions"`
	TargetPortfolioValue *float64         `json:"targetPortfolioValue,omitempty"`
	AfterTaxMode         *bool            `json:"afterTaxMode,omitempty"`
	FlatTaxRate          *float64         `json:"flatTaxRate,omitempty"`
	TaxFreeRate          *float64         `json:"taxFreeRate,omitempty"`
	TaxDeferredRate      *float64         `json:"taxDeferredRate,omitempty"`
	TaxableRate          *float64         `json:"taxableRate,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
}

// HasValue reports whether the snapshot carries any non-zero money figure.
func (s RetirementSnapshot) HasValue() bool {
	if s.TotalBalance > 0 || s.TotalContributions > 0 {
		return true
	}
	for _, a := range s.Accounts {
		if a.Balance > 0 {
			return true
		}
	}
	return false
}

// BalanceOf returns the balance for accountType and whether it was present.
func (s RetirementSnapshot) BalanceOf(accountType string) (float64, bool) {
	for _, a := range s.Accounts {
		if a.AccountType == accountType {
			return a.Balance, true
		}
	}
	return 0, false
}

// Clone returns a copy with its own account slice.
func (s RetirementSnapshot) Clone() RetirementSnapshot {
	c := s
	c.Accounts = make([]AccountBalance, len(s.Accounts))
	for i, a := range s.Accounts {
		a.PreviousBalance = clonePtr(a.PreviousBalance)
		c.Accounts[i] = a
	}
	c.CurrentAge = clonePtr(s.CurrentAge)
	c.OneTimeAdditions = clonePtr(s.OneTimeAdditions)
	c.TargetPortfolioValue = clonePtr(s.TargetPortfolioValue)
	c.AfterTaxMode = clonePtr(s.AfterTaxMode)
	c.FlatTaxRate = clonePtr(s.FlatTaxRate)
	c.TaxFreeRate = clonePtr(s.TaxFreeRate)
	c.TaxDeferredRate = clonePtr(s.TaxDeferredRate)
	c.TaxableRate = clonePtr(s.TaxableRate)
	return c
}
