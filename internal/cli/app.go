package cli

import (
	"finplan/internal/cache"
	"finplan/internal/config"
	"finplan/internal/core"
	"finplan/internal/filesnap"
	apphttp "finplan/internal/http"
	"finplan/internal/services"
	"finplan/internal/store"
)

const snapshotCacheSize = 16

// App holds the services built on one primary store.
type App struct {
	Store        store.Store
	Availability *services.Availability
	Snapshots    *services.SnapshotService
	Accounts     *services.AccountService
	Retirement   *services.RetirementService
	Migration    *services.MigrationService
	Expenses     *services.ExpenseService
	Processor    *services.RecurringProcessor
	Recurring    *services.RecurringService
	Profiles     *services.ProfileService

	// SnapshotCache backs the snapshot list reads; swept by a cache.Janitor.
	SnapshotCache *cache.LRU[[]core.DebtSnapshot]
}

// NewApp wires the services. events may be nil.
func NewApp(cfg *config.Config, st store.Store, events services.EventPublisher) *App {
	avail := services.NewAvailability(filesnap.New(cfg.SnapshotDataDir))

	var snapCache *cache.LRU[[]core.DebtSnapshot]
	var listCache cache.Cache[[]core.DebtSnapshot]
	if cfg.CacheTTL > 0 {
		snapCache = cache.NewLRU[[]core.DebtSnapshot](snapshotCacheSize, cfg.CacheTTL)
		listCache = snapCache
	}

	snaps := services.NewSnapshotService(st, avail, events, listCache)
	expenses := services.NewExpenseService(st, events)
	processor := services.NewRecurringProcessor(st, expenses)
	profiles := services.NewProfileService(st)

	return &App{
		Store:         st,
		Availability:  avail,
		Snapshots:     snaps,
		Accounts:      services.NewAccountService(st, avail, snaps),
		Retirement:    services.NewRetirementService(st).WithAgeSource(profiles),
		Migration:     services.NewMigrationService(st, avail, snaps, cfg.SnapshotDataDir, cfg.DefaultCreditLimit),
		Expenses:      expenses,
		Processor:     processor,
		Recurring:     services.NewRecurringService(st, processor),
		Profiles:      profiles,
		SnapshotCache: snapCache,
	}
}

// HTTPServices exposes the services the API handlers need.
func (a *App) HTTPServices() apphttp.Services {
	return apphttp.Services{
		Accounts:     a.Accounts,
		Snapshots:    a.Snapshots,
		Retirement:   a.Retirement,
		Migration:    a.Migration,
		Recurring:    a.Recurring,
		Profiles:     a.Profiles,
		Availability: a.Availability,
		Store:        a.Store,
	}
}
