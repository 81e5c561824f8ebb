package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finplan/internal/log"
)

const readyTimeout = 2 * time.Second

type readyResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	Store  string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports the read mode. A failed ping degrades the answer but
// keeps it 200: fallback mode still serves reads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ready", Mode: s.svc.Availability.Mode(), Store: "ok"}
	if s.svc.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.svc.Store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Store ping failed", "error", err)
			resp.Status = "degraded"
			resp.Store = "unreachable"
		}
	}
	NewJSONResponse().Body(resp).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	sec := s.detector.GetMetrics()

	primary := 0
	if s.svc.Availability.PrimaryUp() {
		primary = 1
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "finplan_http_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "finplan_http_last_response_microseconds %d\n", tm.LastResponseTime)
	fmt.Fprintf(w, "finplan_ratelimit_hits_total %d\n", rl.TotalHits)
	fmt.Fprintf(w, "finplan_ratelimit_clients %d\n", rl.ClientCount)
	fmt.Fprintf(w, "finplan_security_suspicious_total %d\n", sec.SuspiciousRequests)
	fmt.Fprintf(w, "finplan_security_blocked_total %d\n", sec.BlockedRequests)
	fmt.Fprintf(w, "finplan_primary_up %d\n", primary)
	fmt.Fprintf(w, "finplan_uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleClearAndReload(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Migration.ClearAndReload(r.Context())
	if err != nil {
		s.fail(w, r, log.OpIngest, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}
