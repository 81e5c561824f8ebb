package core

import (
	"regexp"
	"strings"
	"time"
)

type AccountType string

const (
	CreditCard   AccountType = "CREDIT_CARD"
	PersonalLoan AccountType = "PERSONAL_LOAN"
	AutoLoan     AccountType = "AUTO_LOAN"
	Mortgage     AccountType = "MORTGAGE"
	StudentLoan  AccountType = "STUDENT_LOAN"
)

type AccountStatus string

const (
	StatusActive  AccountStatus = "ACTIVE"
	StatusPaidOff AccountStatus = "PAID_OFF"
	StatusClosed  AccountStatus = "CLOSED"
)

// DefaultCreditLimit is applied to credit cards that carry no limit.
const DefaultCreditLimit = 1000.0

// Bucket identifies the snapshot category total an account kind rolls into.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketCreditCard
	BucketPersonalLoan
	BucketAutoLoan
)

type kindTraits struct {
	bucket          Bucket
	hasCreditLimit  bool
	autoFillAllowed bool
}

var kinds = map[AccountType]kindTraits{
	CreditCard:   {bucket: BucketCreditCard, hasCreditLimit: true},
	PersonalLoan: {bucket: BucketPersonalLoan, autoFillAllowed: true},
	AutoLoan:     {bucket: BucketAutoLoan, autoFillAllowed: true},
	Mortgage:     {bucket: BucketNone, autoFillAllowed: true},
	StudentLoan:  {bucket: BucketNone, autoFillAllowed: true},
}

func (t AccountType) IsValid() bool {
	_, ok := kinds[t]
	return ok
}

// Bucket returns the category total this kind contributes to.
func (t AccountType) Bucket() Bucket { return kinds[t].bucket }

// HasCreditLimit reports whether the kind carries a revolving limit.
func (t AccountType) HasCreditLimit() bool { return kinds[t].hasCreditLimit }

// AutoFillAllowed reports whether the APR-band priority/notes defaults apply.
func (t AccountType) AutoFillAllowed() bool { return kinds[t].autoFillAllowed }

// ParseAccountType accepts the canonical name in any case.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", Invalid("unknown account type %q", s)
	}
	return t, nil
}

func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusPaidOff, StatusClosed:
		return true
	}
	return false
}

func ParseAccountStatus(s string) (AccountStatus, error) {
	st := AccountStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", Invalid("unknown account status %q", s)
	}
	return st, nil
}

// StatusForBalance returns ACTIVE for a positive balance and PAID_OFF otherwise.
func StatusForBalance(balance float64) AccountStatus {
	if balance > 0 {
		return StatusActive
	}
	return StatusPaidOff
}

// Derived holds the Debt Strategy Engine outputs. Never accepted from clients.
type Derived struct {
	PrincipalPerMonth *float64 `json:"principalPerMonth"`
	MonthsLeft        *int     `json:"monthsLeft"`
	PayoffDate        *Date    `json:"payoffDate"`
	Priority          *int     `json:"priority"`
}

// IsEmpty reports whether no derived field has been computed yet.
func (d Derived) IsEmpty() bool {
	return d.PrincipalPerMonth == nil && d.MonthsLeft == nil && d.PayoffDate == nil && d.Priority == nil
}

// AccountInput holds the authoritative fields a client may set.
type AccountInput struct {
	AccountID      string        `json:"accountId"`
	Name           string        `json:"name"`
	Type           AccountType   `json:"type"`
	CurrentBalance float64       `json:"currentBalance"`
	CreditLimit    *float64      `json:"creditLimit,omitempty"`
	APR            float64       `json:"apr"`
	MonthlyPayment float64       `json:"monthlyPayment"`
	PromoExpires   *Date         `json:"promoExpires,omitempty"`
	Status         AccountStatus `json:"status,omitempty"`
	OpenedDate     *Date         `json:"openedDate,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	SnapshotDate   Date          `json:"snapshotDate"`
}

// Account is one line of credit at one snapshot date.
type Account struct {
	ID string `json:"id"`
	AccountInput
	Derived
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (in AccountInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if !in.Type.IsValid() {
		return Invalid("unknown account type %q", in.Type)
	}
	if in.CurrentBalance < 0 {
		return Invalid("balance must be non-negative")
	}
	if in.APR < 0 {
		return Invalid("apr must be non-negative")
	}
	if in.MonthlyPayment < 0 {
		return Invalid("monthly payment must be non-negative")
	}
	if in.Status != "" && !in.Status.IsValid() {
		return Invalid("unknown account status %q", in.Status)
	}
	if err := in.SnapshotDate.Validate(); err != nil {
		return Invalid("snapshotDate is required")
	}
	return nil
}

// ToAccount builds an Account from client input, normalizing the business id,
// status and credit limit. Derived fields start empty.
func (in AccountInput) ToAccount() Account {
	a := Account{AccountInput: in}
	if strings.TrimSpace(a.AccountID) == "" {
		a.AccountID = Slug(a.Name)
	}
	a.SnapshotDate = a.SnapshotDate.FirstOfMonth()
	a.NormalizeStatus()
	a.EnsureCreditLimit(DefaultCreditLimit)
	return a
}

// NormalizeStatus keeps CLOSED and otherwise derives status from the balance.
func (a *Account) NormalizeStatus() {
	if a.Status == StatusClosed {
		return
	}
	a.Status = StatusForBalance(a.CurrentBalance)
}

// EnsureCreditLimit sets limit on credit cards that have none. Returns true when changed.
func (a *Account) EnsureCreditLimit(limit float64) bool {
	if !a.Type.HasCreditLimit() || a.CreditLimit != nil {
		return false
	}
	l := limit
	a.CreditLimit = &l
	return true
}

// IsActive reports status ACTIVE.
func (a Account) IsActive() bool { return a.Status == StatusActive }

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug lowercases name and replaces whitespace runs with '-'.
func Slug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Clone returns a copy that shares no pointers with a.
func (a Account) Clone() Account {
	c := a
	c.CreditLimit = clonePtr(a.CreditLimit)
	c.PromoExpires = clonePtr(a.PromoExpires)
	c.OpenedDate = clonePtr(a.OpenedDate)
	c.PrincipalPerMonth = clonePtr(a.PrincipalPerMonth)
	c.MonthsLeft = clonePtr(a.MonthsLeft)
	c.PayoffDate = clonePtr(a.PayoffDate)
	c.Priority = clonePtr(a.Priority)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
