package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finplan/internal/config"
	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/services"
	"finplan/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndValidateConfig(t *testing.T) {
	for _, key := range []string{"PORT", "AMQP_URL", "LOG_LEVEL", "RATE_LIMIT_RPM", "SYNC_INTERVAL", "RECURRING_CRON"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "finplan.db"))
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)

	t.Setenv("RECURRING_CRON", "whenever")
	_, err = LoadAndValidateConfig()
	assert.ErrorContains(t, err, "configuration validation failed")
}

func TestOpenBackend(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}
	logger := log.New(log.Config{Output: nopWriter{}})

	res, err := OpenBackend(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.NoError(t, res.Store.Ping(context.Background()))
	assert.NoError(t, res.Cleanup())

	_, err = OpenBackend(context.Background(), &config.Config{DataBackend: "sheets"}, logger)
	assert.Error(t, err)
}

func TestShutdownContext(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := ShutdownContext(parent, log.New(log.Config{Output: nopWriter{}}))
	defer stop()

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestNewApp(t *testing.T) {
	cfg := &config.Config{SnapshotDataDir: t.TempDir(), CacheTTL: time.Minute, DefaultCreditLimit: 2500}
	app := NewApp(cfg, memory.New(), nil)

	require.NotNil(t, app.SnapshotCache)
	assert.Equal(t, services.ModePrimary, app.Availability.Mode())

	acc, err := app.Accounts.Create(context.Background(), core.AccountInput{
		Name:           "Amex Gold",
		Type:           core.CreditCard,
		CurrentBalance: 500,
		APR:            24,
		MonthlyPayment: 50,
		SnapshotDate:   core.NewDate(2025, 10, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "amex-gold", acc.AccountID)

	svc := app.HTTPServices()
	assert.Same(t, app.Accounts, svc.Accounts)
	assert.Same(t, app.Availability, svc.Availability)

	cfg.CacheTTL = 0
	assert.Nil(t, NewApp(cfg, memory.New(), nil).SnapshotCache)
}
