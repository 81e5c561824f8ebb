// Package services provides business logic and orchestration services.
//
// This file holds the dueness strategies the recurring processor consults
// before materializing a template.
package services

import (
	"finplan/internal/core"
)

// DuenessChecker decides whether a recurring template should be materialized
// on a given day.
type DuenessChecker interface {
	IsDue(re core.RecurringExpense, today core.Date) bool
}

// MonthlyChecker is due once per calendar month, from the template's day
// onward. Days past the month's end clamp to its last day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(re core.RecurringExpense, today core.Date) bool {
	if !re.Active || re.GeneratedIn(today) {
		return false
	}
	return today.Day() >= re.DueDay(today.Year(), today.Month())
}

// ImmediateChecker is due for any active template not yet generated this
// month, whatever the day. New templates use it so the current month is
// booked right away.
type ImmediateChecker struct{}

func (ImmediateChecker) IsDue(re core.RecurringExpense, today core.Date) bool {
	return re.Active && !re.GeneratedIn(today)
}
