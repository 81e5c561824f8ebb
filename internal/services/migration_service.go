package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/core"
	"finplan/internal/debt"
	"finplan/internal/filesnap"
	"finplan/internal/store"

	"github.com/google/uuid"
)

// ReloadResult reports a clear-and-reload run.
type ReloadResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	FilesLoaded int    `json:"filesLoaded"`
}

// MigrationService loads the bundled debt snapshot files into the primary store.
type MigrationService struct {
	store        store.Store
	avail        *Availability
	snapshots    *SnapshotService
	dataDir      string
	defaultLimit float64

	now   func() time.Time
	newID func() string
}

func NewMigrationService(st store.Store, avail *Availability, snapshots *SnapshotService, dataDir string, defaultLimit float64) *MigrationService {
	if defaultLimit <= 0 {
		defaultLimit = core.DefaultCreditLimit
	}
	return &MigrationService{
		store:        st,
		avail:        avail,
		snapshots:    snapshots,
		dataDir:      dataDir,
		defaultLimit: defaultLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// ClearAndReload wipes every account and debt snapshot and ingests each file
// in the data directory. Files that fail are logged and skipped.
func (m *MigrationService) ClearAndReload(ctx context.Context) (ReloadResult, error) {
	if err := m.avail.writable(); err != nil {
		return ReloadResult{}, err
	}
	files, err := filesnap.Files(m.dataDir)
	if err != nil {
		return ReloadResult{}, err
	}
	if err := m.store.Clear(ctx); err != nil {
		return ReloadResult{}, fmt.Errorf("clear debt data: %w", err)
	}

	loaded := 0
	for _, path := range files {
		if _, err := m.IngestFile(ctx, path); err != nil {
			slog.ErrorContext(ctx, "Failed to ingest snapshot file", "file", path, "error", err)
			continue
		}
		loaded++
	}

	slog.InfoContext(ctx, "Reloaded debt snapshots", "dir", m.dataDir, "files", len(files), "loaded", loaded)
	return ReloadResult{
		Status:      "success",
		Message:     fmt.Sprintf("Cleared debt data and loaded %d of %d snapshot files", loaded, len(files)),
		FilesLoaded: loaded,
	}, nil
}

// IngestFile loads one snapshot file.
func (m *MigrationService) IngestFile(ctx context.Context, path string) (core.DebtSnapshot, error) {
	sf, err := filesnap.Load(path)
	if err != nil {
		return core.DebtSnapshot{}, err
	}
	return m.Ingest(ctx, sf)
}

// Ingest replaces the accounts and snapshot at the file's date. Credit limits
// already stored for that date survive the replacement.
func (m *MigrationService) Ingest(ctx context.Context, sf debt.SnapshotFile) (core.DebtSnapshot, error) {
	if err := m.avail.writable(); err != nil {
		return core.DebtSnapshot{}, err
	}
	date, err := sf.Date()
	if err != nil {
		return core.DebtSnapshot{}, err
	}
	limits, err := m.existingLimits(ctx, date)
	if err != nil {
		return core.DebtSnapshot{}, err
	}

	now := m.now()
	snap, accs, err := sf.Build(debt.BuildOptions{
		ExistingLimits: limits,
		DefaultLimit:   m.defaultLimit,
		Today:          core.DateOf(now),
		Now:            now,
		NewID:          m.newID,
	})
	if err != nil {
		return core.DebtSnapshot{}, err
	}
	if err := m.store.ReplaceSnapshot(ctx, snap, accs); err != nil {
		return core.DebtSnapshot{}, fmt.Errorf("replace snapshot %s: %w", date, err)
	}
	slog.InfoContext(ctx, "Ingested snapshot file", "date", date, "accounts", len(accs), "file_total", sf.TotalDebt)

	return m.snapshots.Recompute(ctx, date)
}

func (m *MigrationService) existingLimits(ctx context.Context, date core.Date) (map[string]float64, error) {
	accs, err := m.store.AccountsAt(ctx, date)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("read existing accounts: %w", err)
	}
	limits := make(map[string]float64)
	for _, a := range accs {
		if a.CreditLimit == nil {
			continue
		}
		key := a.AccountID
		if key == "" {
			key = core.Slug(a.Name)
		}
		limits[key] = *a.CreditLimit
	}
	return limits, nil
}

// BackfillCreditLimits gives every credit card without a limit the default one
// and returns how many rows changed.
func (m *MigrationService) BackfillCreditLimits(ctx context.Context) (int, error) {
	if err := m.avail.writable(); err != nil {
		return 0, err
	}
	accs, err := m.store.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}
	var changed []core.Account
	for _, a := range accs {
		if a.EnsureCreditLimit(m.defaultLimit) {
			a.UpdatedAt = m.now()
			changed = append(changed, a)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := m.store.SaveAccounts(ctx, changed); err != nil {
		return 0, fmt.Errorf("save credit limits: %w", err)
	}
	slog.InfoContext(ctx, "Backfilled credit limits", "accounts", len(changed), "limit", m.defaultLimit)
	return len(changed), nil
}
