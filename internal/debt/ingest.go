package debt

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"finplan/internal/core"
)

// SnapshotFile is the external JSON document describing one month of debt.
type SnapshotFile struct {
	SnapshotDate  string       `json:"snapshotDate"`
	TotalDebt     float64      `json:"totalDebt"`
	CreditCards   *FileSection `json:"creditCards,omitempty"`
	PersonalLoans *FileSection `json:"personalLoans,omitempty"`
	AutoLoan      *FileSection `json:"autoLoan,omitempty"`
}

type FileSection struct {
	Total    float64       `json:"total"`
	Accounts []FileAccount `json:"accounts"`
}

type FileAccount struct {
	Name           string   `json:"name"`
	Balance        float64  `json:"balance"`
	APR            float64  `json:"apr"`
	MonthlyPayment *float64 `json:"monthlyPayment,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	PromoExpires   string   `json:"promoExpires,omitempty"`
	CreditLimit    *float64 `json:"creditLimit,omitempty"`
}

// ParseSnapshotFile decodes and validates a snapshot document.
func ParseSnapshotFile(r io.Reader) (SnapshotFile, error) {
	var f SnapshotFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return SnapshotFile{}, fmt.Errorf("decode snapshot file: %w", err)
	}
	if _, err := f.Date(); err != nil {
		return SnapshotFile{}, err
	}
	return f, nil
}

// Date returns the first-of-month the file describes.
func (f SnapshotFile) Date() (core.Date, error) {
	d, err := core.ParseDate(f.SnapshotDate)
	if err != nil {
		return core.Date{}, fmt.Errorf("snapshot file date: %w", err)
	}
	return d.FirstOfMonth(), nil
}

type section struct {
	kind core.AccountType
	data *FileSection
}

func (f SnapshotFile) sections() []section {
	return []section{
		{core.CreditCard, f.CreditCards},
		{core.PersonalLoan, f.PersonalLoans},
		{core.AutoLoan, f.AutoLoan},
	}
}

// BuildOptions carries the inputs of a build that are not in the file.
type BuildOptions struct {
	// ExistingLimits maps slug to a credit limit kept from a previous ingest of the same date.
	ExistingLimits map[string]float64
	DefaultLimit   float64
	Today          core.Date
	Now            time.Time
	NewID          func() string
}

// Build turns the file into a snapshot row carrying the file's own totals and a
// ranked, enriched set of accounts.
func (f SnapshotFile) Build(opts BuildOptions) (core.DebtSnapshot, []core.Account, error) {
	date, err := f.Date()
	if err != nil {
		return core.DebtSnapshot{}, nil, err
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = core.DefaultCreditLimit
	}

	var accounts []core.Account
	for _, sec := range f.sections() {
		if sec.data == nil {
			continue
		}
		for _, fa := range sec.data.Accounts {
			accounts = append(accounts, fa.toAccount(sec.kind, date, opts))
		}
	}
	EnrichAll(accounts, opts.Today)
	AssignPriorities(accounts)

	paymentsThisMonth := 0
	snap := core.DebtSnapshot{
		ID:           opts.NewID(),
		SnapshotDate: date,
		TotalDebt:    f.TotalDebt,
		Metadata:     &core.SnapshotMetadata{PaymentsThisMonth: &paymentsThisMonth},
		CreatedAt:    opts.Now,
	}
	if f.CreditCards != nil {
		snap.CreditCardDebt = f.CreditCards.Total
	}
	if f.PersonalLoans != nil {
		snap.PersonalLoanDebt = f.PersonalLoans.Total
	}
	if f.AutoLoan != nil {
		snap.AutoLoanDebt = f.AutoLoan.Total
	}
	for _, a := range accounts {
		snap.TotalAccounts++
		if a.CurrentBalance > 0 {
			snap.ActiveAccounts++
		} else {
			snap.PaidOffAccounts++
		}
		snap.TotalMonthlyPayment += a.MonthlyPayment
	}
	return snap, accounts, nil
}

func (fa FileAccount) toAccount(kind core.AccountType, date core.Date, opts BuildOptions) core.Account {
	slug := core.Slug(fa.Name)
	a := core.Account{
		ID: opts.NewID(),
		AccountInput: core.AccountInput{
			AccountID:      slug,
			Name:           fa.Name,
			Type:           kind,
			CurrentBalance: fa.Balance,
			APR:            fa.APR,
			Notes:          fa.Notes,
			SnapshotDate:   date,
			Status:         core.StatusForBalance(fa.Balance),
		},
		CreatedAt: opts.Now,
		UpdatedAt: opts.Now,
	}
	if fa.MonthlyPayment != nil {
		a.MonthlyPayment = *fa.MonthlyPayment
	}
	if promo, ok := parsePromo(fa.PromoExpires); ok {
		a.PromoExpires = &promo
	}
	if kind.HasCreditLimit() {
		limit := opts.DefaultLimit
		if fa.CreditLimit != nil {
			limit = *fa.CreditLimit
		} else if prev, ok := opts.ExistingLimits[slug]; ok {
			limit = prev
		}
		a.CreditLimit = &limit
	}
	return a
}

func parsePromo(s string) (core.Date, bool) {
	if s == "" {
		return core.Date{}, false
	}
	if d, err := core.ParseDate(s); err == nil {
		return d, true
	}
	if d, err := core.ParseMonthYear(s); err == nil {
		return d, true
	}
	return core.Date{}, false
}
