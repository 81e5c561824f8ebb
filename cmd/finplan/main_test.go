package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotFile = `{
  "snapshotDate": "2025-09-01",
  "totalDebt": 3000,
  "creditCards": {"total": 3000, "accounts": [{"name": "Chase Sapphire", "balance": 3000, "apr": 22, "monthlyPayment": 150}]}
}`

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debt-snapshot-2025-09.json"), []byte(snapshotFile), 0o644))
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SNAPSHOT_DATA_DIR", dir)
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "finplan.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestCommands(t *testing.T) {
	dir := setupEnv(t)

	out, err := runCommand(t, "reload")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 1 of 1 snapshot files")

	out, err = runCommand(t, "ingest", filepath.Join(dir, "debt-snapshot-2025-09.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "2025-09-01")
	assert.Contains(t, out, "total debt 3000.00")

	out, err = runCommand(t, "backfill-credit-limits")
	require.NoError(t, err)
	assert.Contains(t, out, "updated 0 credit card(s)")

	out, err = runCommand(t, "process-recurring")
	require.NoError(t, err)
	assert.Contains(t, out, "created 0 expense(s)")
}

func TestCommands_Errors(t *testing.T) {
	dir := setupEnv(t)

	_, err := runCommand(t, "ingest")
	assert.Error(t, err)

	_, err = runCommand(t, "ingest", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	t.Setenv("DATA_BACKEND", "sheets")
	_, err = runCommand(t, "reload")
	assert.ErrorContains(t, err, "invalid data backend")
}
