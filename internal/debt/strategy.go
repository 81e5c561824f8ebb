// Package debt implements the debt strategy engine and the snapshot aggregation math.
//
// Everything here is pure: callers supply accounts and "today", the functions
// mutate or return values and never touch storage.
package debt

import (
	"fmt"
	"math"
	"sort"

	"finplan/internal/core"
)

// epsilon absorbs float noise in APR/12 so a payment equal to the interest is
// treated as exactly equal.
const epsilon = 1e-9

// MonthsToPayoff returns the number of whole months needed to retire balance at
// payment per month under apr (percent). ok is false when the payment never
// covers the monthly interest or the formula has no real solution.
func MonthsToPayoff(balance, apr, payment float64) (months int, ok bool) {
	if balance <= 0 {
		return 0, true
	}
	r := apr / 100 / 12
	interest := balance * r
	if payment <= 0 || payment <= interest+epsilon {
		return 0, false
	}
	var n float64
	if r == 0 {
		n = balance / payment
	} else {
		x := 1 - r*balance/payment
		if x <= 0 {
			return 0, false
		}
		n = -math.Log(x) / math.Log(1+r)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return int(math.Ceil(n)), true
}

// Enrich writes principal-per-month, months-left and payoff-date on a.
// A zero balance also clears priority. Unpayable schedules leave months-left
// and payoff-date nil.
func Enrich(a *core.Account, today core.Date) {
	if a.CurrentBalance <= 0 {
		zero, none := 0.0, 0
		payoff := today
		a.PrincipalPerMonth = &zero
		a.MonthsLeft = &none
		a.PayoffDate = &payoff
		a.Priority = nil
		return
	}

	interest := a.CurrentBalance * (a.APR / 100 / 12)
	principal := a.MonthlyPayment - interest
	a.PrincipalPerMonth = &principal

	n, ok := MonthsToPayoff(a.CurrentBalance, a.APR, a.MonthlyPayment)
	if !ok {
		a.MonthsLeft = nil
		a.PayoffDate = nil
		return
	}
	payoff := today.AddMonths(n)
	a.MonthsLeft = &n
	a.PayoffDate = &payoff
}

// EnrichAll enriches every account in place.
func EnrichAll(accs []core.Account, today core.Date) {
	for i := range accs {
		Enrich(&accs[i], today)
	}
}

// AssignPriorities ranks active accounts with a positive balance by APR
// descending (Avalanche) and writes 1..k. Everything else gets nil. Ties keep
// input order and the slice itself is not reordered.
func AssignPriorities(accs []core.Account) {
	idx := make([]int, 0, len(accs))
	for i := range accs {
		if accs[i].IsActive() && accs[i].CurrentBalance > 0 {
			idx = append(idx, i)
		} else {
			accs[i].Priority = nil
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return accs[idx[a]].APR > accs[idx[b]].APR
	})
	for rank, i := range idx {
		p := rank + 1
		accs[i].Priority = &p
	}
}

// BandPriority maps an APR to the coarse 1..5 priority used for auto-filled loans.
func BandPriority(apr float64) int {
	switch {
	case apr >= 20:
		return 5
	case apr >= 15:
		return 4
	case apr >= 10:
		return 3
	case apr >= 5:
		return 2
	default:
		return 1
	}
}

// Prepare enriches a client-submitted account. Accounts that arrive without any
// derived field also get the auto-fill defaults.
func Prepare(a *core.Account, today core.Date) {
	fill := a.Derived.IsEmpty()
	Enrich(a, today)
	if fill {
		AutoFill(a, today)
	}
}

// AutoFill sets an APR-band priority and a default notes line on non-credit-card
// accounts that have balance and payment. Existing values are kept.
func AutoFill(a *core.Account, today core.Date) {
	if !a.Type.AutoFillAllowed() || a.CurrentBalance <= 0 || a.MonthlyPayment <= 0 {
		return
	}
	if a.Priority == nil {
		p := BandPriority(a.APR)
		a.Priority = &p
	}
	if a.Notes == "" {
		a.Notes = autoNotes(a, today)
	}
}

func autoNotes(a *core.Account, today core.Date) string {
	if a.MonthsLeft == nil {
		return fmt.Sprintf("Auto-calculated on %s: does not pay off at %s/mo", today, core.FormatUSD(a.MonthlyPayment))
	}
	return fmt.Sprintf("Auto-calculated on %s: %d months left at %s/mo", today, *a.MonthsLeft, core.FormatUSD(a.MonthlyPayment))
}
