// Package filesnap serves debt snapshots straight from the bundled JSON files.
// It is the read-only fallback used while the primary store is unreachable.
package filesnap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"finplan/internal/core"
	"finplan/internal/debt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pattern matches the snapshot files under the data directory.
const Pattern = "debt-snapshot-*.json"

const parseWorkers = 4

type entry struct {
	snapshot core.DebtSnapshot
	accounts []core.Account
}

type Source struct {
	dir   string
	clock func() time.Time

	once    sync.Once
	entries []entry // newest first
	loadErr error
}

func New(dir string) *Source {
	return &Source{dir: dir, clock: time.Now}
}

// Files lists the snapshot files in dir, oldest first by name.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, Pattern))
	if err != nil {
		return nil, fmt.Errorf("glob snapshot files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Load parses one snapshot file.
func Load(path string) (debt.SnapshotFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return debt.SnapshotFile{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	sf, err := debt.ParseSnapshotFile(f)
	if err != nil {
		return debt.SnapshotFile{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return sf, nil
}

func (s *Source) load(ctx context.Context) error {
	s.once.Do(func() {
		files, err := Files(s.dir)
		if err != nil {
			s.loadErr = err
			return
		}

		now := s.clock()
		today := core.DateOf(now)
		parsed := make([]*entry, len(files))

		// The cache outlives the request that fills it.
		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		g.SetLimit(parseWorkers)
		for i, path := range files {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				sf, err := Load(path)
				if err != nil {
					slog.WarnContext(gctx, "Skipping malformed snapshot file", "file", path, "error", err)
					return nil
				}
				snap, accs, err := sf.Build(debt.BuildOptions{Today: today, Now: now, NewID: uuid.NewString})
				if err != nil {
					slog.WarnContext(gctx, "Skipping unusable snapshot file", "file", path, "error", err)
					return nil
				}
				debt.Aggregate(accs).Apply(&snap)
				parsed[i] = &entry{snapshot: snap, accounts: accs}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.loadErr = fmt.Errorf("load snapshot files: %w", err)
			return
		}

		for _, e := range parsed {
			if e != nil {
				s.entries = append(s.entries, *e)
			}
		}
		sort.SliceStable(s.entries, func(i, j int) bool {
			return s.entries[i].snapshot.SnapshotDate.After(s.entries[j].snapshot.SnapshotDate.Time)
		})
		slog.InfoContext(ctx, "Loaded fallback snapshots", "dir", s.dir, "files", len(files), "snapshots", len(s.entries))
	})
	return s.loadErr
}

// Snapshots returns every parsed snapshot, newest first.
func (s *Source) Snapshots(ctx context.Context) ([]core.DebtSnapshot, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	out := make([]core.DebtSnapshot, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.snapshot.Clone()
	}
	return out, nil
}

func (s *Source) SnapshotAt(ctx context.Context, date core.Date) (core.DebtSnapshot, error) {
	if err := s.load(ctx); err != nil {
		return core.DebtSnapshot{}, err
	}
	for _, e := range s.entries {
		if e.snapshot.SnapshotDate.Equal(date.Time) {
			return e.snapshot.Clone(), nil
		}
	}
	return core.DebtSnapshot{}, fmt.Errorf("snapshot %s: %w", date, core.ErrNotFound)
}

// SnapshotsBetween returns snapshots with from <= date <= to, newest first.
func (s *Source) SnapshotsBetween(ctx context.Context, from, to core.Date) ([]core.DebtSnapshot, error) {
	all, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.DebtSnapshot
	for _, snap := range all {
		d := snap.SnapshotDate
		if !d.Before(from.Time) && !d.After(to.Time) {
			out = append(out, snap)
		}
	}
	return out, nil
}

// Accounts returns every account across all files, newest snapshot first.
func (s *Source) Accounts(ctx context.Context) ([]core.Account, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	var out []core.Account
	for _, e := range s.entries {
		for _, a := range e.accounts {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *Source) AccountsAt(ctx context.Context, date core.Date) ([]core.Account, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	for _, e := range s.entries {
		if e.snapshot.SnapshotDate.Equal(date.Time) {
			out := make([]core.Account, len(e.accounts))
			for i, a := range e.accounts {
				out[i] = a.Clone()
			}
			return out, nil
		}
	}
	return nil, nil
}
