package debt

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"finplan/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const septemberFile = `{
  "snapshotDate": "2025-09-01",
  "totalDebt": 99999,
  "creditCards": {
    "total": 3500,
    "accounts": [
      {"name": "Chase  Sapphire", "balance": 3000, "apr": 22, "monthlyPayment": 150, "promoExpires": "2026-03-01"},
      {"name": "Amex Blue", "balance": 0, "apr": 19.99, "creditLimit": 5000},
      {"name": "Citi Double", "balance": 500, "apr": 27.24, "monthlyPayment": 35}
    ]
  },
  "personalLoans": {"total": 0, "accounts": []},
  "autoLoan": {
    "total": 15000,
    "accounts": [{"name": "Honda Civic", "balance": 15000, "apr": 6, "monthlyPayment": 400, "notes": "60 month term"}]
  }
}`

func buildOpts(limits map[string]float64) BuildOptions {
	n := 0
	return BuildOptions{
		ExistingLimits: limits,
		Today:          today,
		Now:            time.Date(2025, 10, 19, 8, 0, 0, 0, time.UTC),
		NewID:          func() string { n++; return fmt.Sprintf("row-%d", n) },
	}
}

func TestParseSnapshotFile(t *testing.T) {
	f, err := ParseSnapshotFile(strings.NewReader(septemberFile))
	require.NoError(t, err)
	d, err := f.Date()
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", d.String())

	_, err = ParseSnapshotFile(strings.NewReader(`{"snapshotDate": "not a date"}`))
	assert.Error(t, err)

	_, err = ParseSnapshotFile(strings.NewReader(`{"snapshotDate": `))
	assert.Error(t, err)
}

func TestSnapshotFile_Build(t *testing.T) {
	f, err := ParseSnapshotFile(strings.NewReader(septemberFile))
	require.NoError(t, err)

	snap, accs, err := f.Build(buildOpts(map[string]float64{"citi-double": 2500}))
	require.NoError(t, err)
	require.Len(t, accs, 4)

	// file totals are carried as given
	assert.Equal(t, 99999.0, snap.TotalDebt)
	assert.Equal(t, 3500.0, snap.CreditCardDebt)
	assert.Equal(t, 15000.0, snap.AutoLoanDebt)
	assert.Equal(t, 4, snap.TotalAccounts)
	assert.Equal(t, 3, snap.ActiveAccounts)
	assert.Equal(t, 1, snap.PaidOffAccounts)
	require.NotNil(t, snap.Metadata)
	assert.Equal(t, 0, *snap.Metadata.PaymentsThisMonth)

	byID := map[string]core.Account{}
	for _, a := range accs {
		byID[a.AccountID] = a
	}

	chase := byID["chase-sapphire"]
	assert.Equal(t, core.CreditCard, chase.Type)
	assert.Equal(t, core.StatusActive, chase.Status)
	assert.Equal(t, core.DefaultCreditLimit, *chase.CreditLimit)
	assert.Equal(t, "2026-03-01", chase.PromoExpires.String())
	assert.Equal(t, 2, *chase.Priority)

	amex := byID["amex-blue"]
	assert.Equal(t, core.StatusPaidOff, amex.Status)
	assert.Equal(t, 5000.0, *amex.CreditLimit)
	assert.Nil(t, amex.Priority)

	citi := byID["citi-double"]
	assert.Equal(t, 2500.0, *citi.CreditLimit, "existing limit preserved")
	assert.Equal(t, 1, *citi.Priority)

	honda := byID["honda-civic"]
	assert.Equal(t, core.AutoLoan, honda.Type)
	assert.Nil(t, honda.CreditLimit)
	assert.Equal(t, "60 month term", honda.Notes)
	assert.Equal(t, 3, *honda.Priority)
	assert.Equal(t, 42, *honda.MonthsLeft)

	totals := Aggregate(accs)
	assert.InDelta(t, 18500, totals.TotalDebt, 1e-9)
}
