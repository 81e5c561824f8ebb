package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"finplan/internal/core"
	"finplan/internal/filesnap"
)

const (
	ModePrimary  = "primary"
	ModeFallback = "fallback"
)

// Availability tracks whether the primary store still answers reads. It starts
// up, goes down on the first failed read and stays down for the process.
type Availability struct {
	up    atomic.Bool
	files *filesnap.Source
}

func NewAvailability(files *filesnap.Source) *Availability {
	a := &Availability{files: files}
	a.up.Store(true)
	return a
}

func (a *Availability) PrimaryUp() bool {
	return a.up.Load()
}

// Mode reports "primary" or "fallback".
func (a *Availability) Mode() string {
	if a.PrimaryUp() {
		return ModePrimary
	}
	return ModeFallback
}

// failed records a primary read error and reports whether the caller should
// switch to the file source. Not-found answers are not failures.
func (a *Availability) failed(ctx context.Context, err error) bool {
	if err == nil || errors.Is(err, core.ErrNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	if a.up.CompareAndSwap(true, false) {
		slog.WarnContext(ctx, "Primary store unavailable, serving reads from snapshot files", "error", err)
	}
	return true
}

func (a *Availability) writable() error {
	if !a.PrimaryUp() {
		return core.ErrOffline
	}
	return nil
}

func (a *Availability) fallback() (*filesnap.Source, error) {
	if a.files == nil {
		return nil, core.ErrOffline
	}
	return a.files, nil
}
