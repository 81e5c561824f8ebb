package memory

import (
	"context"
	"fmt"
	"sync"

	"finplan/internal/core"
	ports "finplan/internal/sheets"
)

// Store is an in-process expense mirror used when no spreadsheet is configured.
type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

var _ ports.ExpenseMirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) ListExpenses(_ context.Context, year int, month int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out, nil
}
