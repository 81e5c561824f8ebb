package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"finplan/internal/cache"
	"finplan/internal/core"
	"finplan/internal/filesnap"
	"finplan/internal/store/memory"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 10, 19, 9, 0, 0, 0, time.UTC)

const septemberFile = `{
  "snapshotDate": "2025-09-01",
  "totalDebt": 18000,
  "creditCards": {"total": 3000, "accounts": [{"name": "Chase Sapphire", "balance": 3000, "apr": 22, "monthlyPayment": 150}]},
  "autoLoan": {"total": 15000, "accounts": [{"name": "Honda Civic", "balance": 15000, "apr": 6, "monthlyPayment": 400}]}
}`

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []core.DebtSnapshot
	expenses  []core.Expense
	err       error
}

func (p *recordingPublisher) PublishSnapshotRecomputed(_ context.Context, s core.DebtSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
	return p.err
}

func (p *recordingPublisher) PublishExpenseMaterialized(_ context.Context, e core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expenses = append(p.expenses, e)
	return p.err
}

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow() time.Time { return testNow }

type fixture struct {
	store     *memory.Store
	avail     *Availability
	events    *recordingPublisher
	snapshots *SnapshotService
	accounts  *AccountService
	migration *MigrationService
	dataDir   string
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	st := memory.New()
	avail := NewAvailability(filesnap.New(dir))
	events := &recordingPublisher{}

	snaps := NewSnapshotService(st, avail, events, cache.NewLRU[[]core.DebtSnapshot](4, time.Minute))
	snaps.now, snaps.newID = fixedNow, sequence("snap")

	accounts := NewAccountService(st, avail, snaps)
	accounts.now, accounts.newID = fixedNow, sequence("acc")

	migration := NewMigrationService(st, avail, snaps, dir, 0)
	migration.now, migration.newID = fixedNow, sequence("ing")

	return &fixture{
		store:     st,
		avail:     avail,
		events:    events,
		snapshots: snaps,
		accounts:  accounts,
		migration: migration,
		dataDir:   dir,
	}
}

func (f *fixture) ingestSeptember(t *testing.T) core.DebtSnapshot {
	t.Helper()
	snap, err := f.migration.IngestFile(context.Background(), filepath.Join(f.dataDir, "debt-snapshot-2025-09.json"))
	require.NoError(t, err)
	return snap
}

func accountNamed(t *testing.T, accs []core.Account, name string) core.Account {
	t.Helper()
	for _, a := range accs {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("no account named %q", name)
	return core.Account{}
}
