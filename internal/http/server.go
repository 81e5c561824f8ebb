package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"finplan/internal/log"
	"finplan/internal/middleware/ratelimit"
	"finplan/internal/middleware/security"
	"finplan/internal/middleware/trace"
	"finplan/internal/services"
	"finplan/internal/store"

	"github.com/gorilla/mux"
)

// Services are the application services the handlers call.
type Services struct {
	Accounts     *services.AccountService
	Snapshots    *services.SnapshotService
	Retirement   *services.RetirementService
	Migration    *services.MigrationService
	Recurring    *services.RecurringService
	Profiles     *services.ProfileService
	Availability *services.Availability
	// Store is pinged by /readyz. May be nil.
	Store store.Store
}

// Options tune the middleware chain.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	svc Services

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. The returned server is not started.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:      svc,
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	var h http.Handler = s.routes()
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = security.CORS(security.DefaultCORSConfig())(h)
	h = s.detector.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(logger.WithComponent(log.ComponentHTTP))(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	r := mux.NewRouter()
	r.NotFoundHandler, r.MethodNotAllowedHandler = notFound, notAllowed

	// Subrouters need their own handlers or a method mismatch surfaces as 404.
	subrouter := func(prefix string) *mux.Router {
		sr := r.PathPrefix(prefix).Subrouter()
		sr.NotFoundHandler, sr.MethodNotAllowedHandler = notFound, notAllowed
		return sr
	}

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	// Literal segments first: mux matches in registration order.
	acc := subrouter("/accounts")
	acc.HandleFunc("", s.handleListAccounts).Methods(http.MethodGet)
	acc.HandleFunc("", s.handleCreateAccount).Methods(http.MethodPost)
	acc.HandleFunc("/total-debt", s.handleTotalDebt).Methods(http.MethodGet)
	acc.HandleFunc("/total-debt/type/{kind}", s.handleTotalDebtByType).Methods(http.MethodGet)
	acc.HandleFunc("/highest-interest", s.handleHighestInterest).Methods(http.MethodGet)
	acc.HandleFunc("/account-id/{accountId}", s.handleAccountByBusinessID).Methods(http.MethodGet)
	acc.HandleFunc("/snapshot/{date}", s.handleAccountsAt).Methods(http.MethodGet)
	acc.HandleFunc("/type/{kind}", s.handleAccountsByType).Methods(http.MethodGet)
	acc.HandleFunc("/active/type/{kind}", s.handleActiveAccountsByType).Methods(http.MethodGet)
	acc.HandleFunc("/status/{status}", s.handleAccountsByStatus).Methods(http.MethodGet)
	acc.HandleFunc("/{id}", s.handleGetAccount).Methods(http.MethodGet)
	acc.HandleFunc("/{id}", s.handleUpdateAccount).Methods(http.MethodPut)
	acc.HandleFunc("/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)

	snap := subrouter("/snapshots")
	snap.HandleFunc("", s.handleListSnapshots).Methods(http.MethodGet)
	snap.HandleFunc("/date/{date}", s.handleSnapshotAt).Methods(http.MethodGet)
	snap.HandleFunc("/years", s.handleSnapshotYears).Methods(http.MethodGet)
	snap.HandleFunc("/year/{year}", s.handleSnapshotsInYear).Methods(http.MethodGet)
	snap.HandleFunc("/grouped-by-year", s.handleSnapshotsGrouped).Methods(http.MethodGet)
	snap.HandleFunc("/manage/create", s.handleCreateSnapshot).Methods(http.MethodPost)
	snap.HandleFunc("/manage/{date}/accounts/batch", s.handleBatchUpsert).Methods(http.MethodPost)
	snap.HandleFunc("/manage/{date}/exists", s.handleSnapshotExists).Methods(http.MethodGet)
	snap.HandleFunc("/manage/{date}", s.handleRecomputeSnapshot).Methods(http.MethodPut)
	snap.HandleFunc("/manage/{date}", s.handleDeleteSnapshot).Methods(http.MethodDelete)

	ret := subrouter("/retirement")
	ret.HandleFunc("/plan", s.handleRetirementPlan).Methods(http.MethodPost)
	ret.HandleFunc("/history", s.handleRetirementHistory).Methods(http.MethodGet)
	ret.HandleFunc("/latest", s.handleRetirementLatest).Methods(http.MethodGet)
	ret.HandleFunc("/snapshots/{year}", s.handleRetirementInYear).Methods(http.MethodGet)
	ret.HandleFunc("/snapshot/clone", s.handleRetirementClone).Methods(http.MethodPost)
	ret.HandleFunc("/snapshot/date/{date}", s.handleRetirementAtDate).Methods(http.MethodGet)
	ret.HandleFunc("/snapshot/{monthYear}", s.handleRetirementAtMonth).Methods(http.MethodGet)
	ret.HandleFunc("/snapshot/{monthYear}", s.handleRetirementDeleteMonth).Methods(http.MethodDelete)

	r.HandleFunc("/debt/migration/clear-and-reload", s.handleClearAndReload).Methods(http.MethodPost)

	rec := subrouter("/recurring-expenses")
	rec.HandleFunc("", s.handleListRecurring).Methods(http.MethodGet)
	rec.HandleFunc("", s.handleCreateRecurring).Methods(http.MethodPost)
	rec.HandleFunc("/process", s.handleProcessRecurring).Methods(http.MethodPost)
	rec.HandleFunc("/{id}", s.handleGetRecurring).Methods(http.MethodGet)
	rec.HandleFunc("/{id}", s.handleUpdateRecurring).Methods(http.MethodPut)
	rec.HandleFunc("/{id}", s.handleDeleteRecurring).Methods(http.MethodDelete)

	prof := subrouter("/profiles")
	prof.HandleFunc("", s.handleListProfiles).Methods(http.MethodGet)
	prof.HandleFunc("", s.handleCreateProfile).Methods(http.MethodPost)
	prof.HandleFunc("/{id}", s.handleGetProfile).Methods(http.MethodGet)
	prof.HandleFunc("/{id}", s.handleUpdateProfile).Methods(http.MethodPut)
	prof.HandleFunc("/{id}", s.handleDeleteProfile).Methods(http.MethodDelete)

	return r
}

// fail logs err against the request and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	fields := log.NewFields().WithOperation(op).WithError(err, errorType(resp.statusCode))
	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	resp.Write(w)
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeInternal
	}
}

// ListenAndServeContext serves until ctx ends, then shuts down within timeout.
func (s *Server) ListenAndServeContext(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the limiter and drains the server. Only the first call does work.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
