package core

import "time"

// DebtSnapshot is the aggregate of all accounts at one first-of-month date.
type DebtSnapshot struct {
	ID                   string            `json:"id"`
	SnapshotDate         Date              `json:"snapshotDate"`
	TotalDebt            float64           `json:"totalDebt"`
	CreditCardDebt       float64           `json:"creditCardDebt"`
	PersonalLoanDebt     float64           `json:"personalLoanDebt"`
	AutoLoanDebt         float64           `json:"autoLoanDebt"`
	TotalAccounts        int               `json:"totalAccounts"`
	ActiveAccounts       int               `json:"activeAccounts"`
	PaidOffAccounts      int               `json:"paidOffAccounts"`
	TotalMonthlyPayment  float64           `json:"totalMonthlyPayment"`
	TotalMonthlyInterest float64           `json:"totalMonthlyInterest"`
	PerformanceScore     int               `json:"performanceScore"`
	Metadata             *SnapshotMetadata `json:"metadata,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}

type SnapshotMetadata struct {
	DebtReduction     *float64 `json:"debtReduction,omitempty"`
	PaymentsThisMonth *int     `json:"paymentsThisMonth,omitempty"`
	NewCharges        *float64 `json:"newCharges,omitempty"`
	PrincipalPaid     *float64 `json:"principalPaid,omitempty"`
	InterestPaid      *float64 `json:"interestPaid,omitempty"`
}

// EmptySnapshot returns an all-zero snapshot for date, score included.
func EmptySnapshot(date Date, now time.Time) DebtSnapshot {
	return DebtSnapshot{SnapshotDate: date, CreatedAt: now}
}

// Clone returns a copy with its own metadata.
func (s DebtSnapshot) Clone() DebtSnapshot {
	c := s
	if s.Metadata != nil {
		m := SnapshotMetadata{
			DebtReduction:     clonePtr(s.Metadata.DebtReduction),
			PaymentsThisMonth: clonePtr(s.Metadata.PaymentsThisMonth),
			NewCharges:        clonePtr(s.Metadata.NewCharges),
			PrincipalPaid:     clonePtr(s.Metadata.PrincipalPaid),
			InterestPaid:      clonePtr(s.Metadata.InterestPaid),
		}
		c.Metadata = &m
	}
	return c
}
