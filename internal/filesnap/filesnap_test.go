package filesnap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finplan/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sepFile = `{
  "snapshotDate": "2025-09-01",
  "totalDebt": 18000,
  "creditCards": {"total": 3000, "accounts": [{"name": "Chase Sapphire", "balance": 3000, "apr": 22, "monthlyPayment": 150}]},
  "autoLoan": {"total": 15000, "accounts": [{"name": "Honda Civic", "balance": 15000, "apr": 6, "monthlyPayment": 400, "notes": ""}]}
}`

const octFile = `{
  "snapshotDate": "2025-10-01",
  "totalDebt": 1,
  "creditCards": {"total": 1, "accounts": [{"name": "Chase Sapphire", "balance": 2800, "apr": 22, "monthlyPayment": 150}]}
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func newSource(dir string) *Source {
	s := New(dir)
	s.clock = func() time.Time { return time.Date(2025, 10, 19, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestSource(t *testing.T) {
	ctx := context.Background()
	dir := writeFiles(t, map[string]string{
		"debt-snapshot-2025-09.json": sepFile,
		"debt-snapshot-2025-10.json": octFile,
		"debt-snapshot-broken.json":  `{"snapshotDate": `,
		"notes.json":                 `{}`,
	})
	src := newSource(dir)

	snaps, err := src.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "2025-10-01", snaps[0].SnapshotDate.String())
	// totals are recomputed from the accounts, not taken from the file
	assert.Equal(t, 2800.0, snaps[0].TotalDebt)
	assert.Equal(t, 18000.0, snaps[1].TotalDebt)

	sep, err := src.SnapshotAt(ctx, core.NewDate(2025, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, sep.ActiveAccounts)

	_, err = src.SnapshotAt(ctx, core.NewDate(2025, 8, 1))
	assert.ErrorIs(t, err, core.ErrNotFound)

	accs, err := src.AccountsAt(ctx, core.NewDate(2025, 9, 1))
	require.NoError(t, err)
	require.Len(t, accs, 2)
	assert.Equal(t, 1, *accs[0].Priority)
	assert.Equal(t, 26, *accs[0].MonthsLeft)

	all, err := src.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	between, err := src.SnapshotsBetween(ctx, core.NewDate(2025, 10, 1), core.NewDate(2025, 12, 31))
	require.NoError(t, err)
	assert.Len(t, between, 1)
}

func TestSource_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	src := newSource(writeFiles(t, map[string]string{"debt-snapshot-2025-09.json": sepFile}))

	accs, err := src.AccountsAt(ctx, core.NewDate(2025, 9, 1))
	require.NoError(t, err)
	*accs[0].Priority = 42
	accs[0].Name = "mutated"

	again, err := src.AccountsAt(ctx, core.NewDate(2025, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, *again[0].Priority)
	assert.Equal(t, "Chase Sapphire", again[0].Name)
}

func TestSource_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	dir := writeFiles(t, map[string]string{"debt-snapshot-2025-09.json": sepFile})
	src := newSource(dir)

	first, err := src.Snapshots(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debt-snapshot-2025-10.json"), []byte(octFile), 0o644))

	second, err := src.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second), "cache is never invalidated")
}

func TestSource_CancelledFirstReadDoesNotPoisonCache(t *testing.T) {
	src := newSource(writeFiles(t, map[string]string{"debt-snapshot-2025-09.json": sepFile}))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = src.Snapshots(cancelled)

	snaps, err := src.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 18000.0, snaps[0].TotalDebt)
}

func TestFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"debt-snapshot-2025-10.json": octFile,
		"debt-snapshot-2025-09.json": sepFile,
		"other.json":                 "{}",
	})
	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "debt-snapshot-2025-09.json", filepath.Base(files[0]))
}
