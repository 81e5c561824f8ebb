package debt

import (
	"math"
	"time"

	"finplan/internal/core"
)

// Totals is the projection of a set of accounts onto snapshot aggregates.
type Totals struct {
	TotalDebt            float64
	CreditCardDebt       float64
	PersonalLoanDebt     float64
	AutoLoanDebt         float64
	TotalAccounts        int
	ActiveAccounts       int
	PaidOffAccounts      int
	TotalMonthlyPayment  float64
	TotalMonthlyInterest float64
	PerformanceScore     int
}

// Aggregate sums ACTIVE accounts into category buckets and computes the score.
func Aggregate(accs []core.Account) Totals {
	var t Totals
	t.TotalAccounts = len(accs)
	for _, a := range accs {
		switch a.Status {
		case core.StatusActive:
			t.ActiveAccounts++
		case core.StatusPaidOff:
			t.PaidOffAccounts++
		}
		if !a.IsActive() {
			continue
		}
		t.TotalDebt += a.CurrentBalance
		switch a.Type.Bucket() {
		case core.BucketCreditCard:
			t.CreditCardDebt += a.CurrentBalance
		case core.BucketPersonalLoan:
			t.PersonalLoanDebt += a.CurrentBalance
		case core.BucketAutoLoan:
			t.AutoLoanDebt += a.CurrentBalance
		}
		t.TotalMonthlyPayment += a.MonthlyPayment
		if a.APR > 0 {
			t.TotalMonthlyInterest += a.CurrentBalance * a.APR / 100 / 12
		}
	}
	t.PerformanceScore = PerformanceScore(t.TotalDebt, t.TotalMonthlyPayment, t.TotalMonthlyInterest)
	return t
}

// PerformanceScore trades payment coverage against interest cost, clamped to [0,100].
// The raw value goes negative when interest dominates payments; the clamp hides that.
func PerformanceScore(totalDebt, totalPayment, totalInterest float64) int {
	if totalDebt <= 0 {
		return 100
	}
	paymentRatio := totalPayment / totalDebt * 100
	interestRatio := 0.0
	if totalPayment > 0 {
		interestRatio = totalInterest / totalPayment * 100
	}
	score := math.Floor(paymentRatio*0.6 - interestRatio*0.4)
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 100:
		return 100
	}
	return int(score)
}

// Apply writes the totals onto s, leaving identity and metadata alone.
func (t Totals) Apply(s *core.DebtSnapshot) {
	s.TotalDebt = t.TotalDebt
	s.CreditCardDebt = t.CreditCardDebt
	s.PersonalLoanDebt = t.PersonalLoanDebt
	s.AutoLoanDebt = t.AutoLoanDebt
	s.TotalAccounts = t.TotalAccounts
	s.ActiveAccounts = t.ActiveAccounts
	s.PaidOffAccounts = t.PaidOffAccounts
	s.TotalMonthlyPayment = t.TotalMonthlyPayment
	s.TotalMonthlyInterest = t.TotalMonthlyInterest
	s.PerformanceScore = t.PerformanceScore
}

// CloneAccounts copies src onto date with fresh ids and timestamps.
func CloneAccounts(src []core.Account, date core.Date, now time.Time, newID func() string) []core.Account {
	out := make([]core.Account, 0, len(src))
	for _, a := range src {
		c := a.Clone()
		c.ID = newID()
		c.SnapshotDate = date
		c.CreatedAt = now
		c.UpdatedAt = now
		out = append(out, c)
	}
	return out
}
