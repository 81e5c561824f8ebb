package services

import (
	"context"

	"finplan/internal/core"
)

// EventPublisher emits change notifications. Publish failures never fail the
// write that produced them.
type EventPublisher interface {
	PublishSnapshotRecomputed(ctx context.Context, s core.DebtSnapshot) error
	PublishExpenseMaterialized(ctx context.Context, e core.Expense) error
}
