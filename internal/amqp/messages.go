package amqp

import (
	"encoding/json"
	"time"

	"finplan/internal/core"
)

// Routing keys on the finplan exchange
const (
	RoutingSnapshotRecomputed  = "snapshot.recomputed"
	RoutingExpenseMaterialized = "expense.materialized"
)

// SnapshotRecomputedMessage carries the headline totals of a debt snapshot
// after its accounts were re-ranked.
type SnapshotRecomputedMessage struct {
	SnapshotID          string    `json:"snapshotId"`
	SnapshotDate        string    `json:"snapshotDate"`
	TotalDebt           float64   `json:"totalDebt"`
	TotalMonthlyPayment float64   `json:"totalMonthlyPayment"`
	ActiveAccounts      int       `json:"activeAccounts"`
	PerformanceScore    int       `json:"performanceScore"`
	Timestamp           time.Time `json:"timestamp"`
}

func NewSnapshotRecomputedMessage(s core.DebtSnapshot) *SnapshotRecomputedMessage {
	return &SnapshotRecomputedMessage{
		SnapshotID:          s.ID,
		SnapshotDate:        s.SnapshotDate.String(),
		TotalDebt:           s.TotalDebt,
		TotalMonthlyPayment: s.TotalMonthlyPayment,
		ActiveAccounts:      s.ActiveAccounts,
		PerformanceScore:    s.PerformanceScore,
		Timestamp:           time.Now(),
	}
}

func (m *SnapshotRecomputedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotRecomputedMessageFromJSON(data []byte) (*SnapshotRecomputedMessage, error) {
	var msg SnapshotRecomputedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExpenseMaterializedMessage is a lightweight pointer to a stored expense.
// The worker fetches the full expense from the database.
type ExpenseMaterializedMessage struct {
	ID          string    `json:"id"`
	RecurringID string    `json:"recurringId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseMaterializedMessage(e core.Expense) *ExpenseMaterializedMessage {
	return &ExpenseMaterializedMessage{
		ID:          e.ID,
		RecurringID: e.RecurringID,
		Timestamp:   time.Now(),
	}
}

func (m *ExpenseMaterializedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseMaterializedMessageFromJSON(data []byte) (*ExpenseMaterializedMessage, error) {
	var msg ExpenseMaterializedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
