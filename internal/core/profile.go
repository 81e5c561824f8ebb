package core

import (
	"strings"
	"time"
)

// Profile is the plan owner. Its date of birth drives the retirement age
// when a plan request leaves currentAge out.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DOB           *Date     `json:"dob,omitempty"`
	RetirementAge *int      `json:"retirementAge,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 100 {
		return Invalid("name too long (max 100 characters)")
	}
	if p.DOB != nil && p.DOB.IsZero() {
		return Invalid("dob cannot be zero")
	}
	if p.RetirementAge != nil && (*p.RetirementAge < 1 || *p.RetirementAge > 120) {
		return Invalid("invalid retirement age %d", *p.RetirementAge)
	}
	return nil
}

// AgeAt returns the age in years on day, counted in whole months and rounded
// to 2 decimals. It reports false without a DOB or when day precedes it.
func (p Profile) AgeAt(day Date) (float64, bool) {
	if p.DOB == nil || p.DOB.IsZero() || day.Before(p.DOB.Time) {
		return 0, false
	}
	months := (day.Year()-p.DOB.Year())*12 + day.Month() - p.DOB.Month()
	if day.Day() < p.DOB.Day() {
		months--
	}
	return Round2(float64(months) / 12), true
}

// Clone returns a copy with its own pointers.
func (p Profile) Clone() Profile {
	c := p
	c.DOB = clonePtr(p.DOB)
	c.RetirementAge = clonePtr(p.RetirementAge)
	return c
}
