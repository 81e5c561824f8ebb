package http

import (
	"net/http"

	"finplan/internal/core"
	"finplan/internal/log"
)

// createSnapshotRequest accepts the date under either key.
type createSnapshotRequest struct {
	SnapshotDate  *core.Date `json:"snapshotDate"`
	Date          *core.Date `json:"date"`
	CloneFromDate *core.Date `json:"cloneFromDate"`
}

type existsResponse struct {
	Date   core.Date `json:"date"`
	Exists bool      `json:"exists"`
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.Snapshots.ListSnapshots(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(snaps)).Write(w)
}

func (s *Server) handleSnapshotAt(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	snap, err := s.svc.Snapshots.SnapshotAt(r.Context(), date)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleSnapshotYears(w http.ResponseWriter, r *http.Request) {
	years, err := s.svc.Snapshots.Years(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(years)).Write(w)
}

func (s *Server) handleSnapshotsInYear(w http.ResponseWriter, r *http.Request) {
	year, err := PathYear(r, "year")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	snaps, err := s.svc.Snapshots.SnapshotsInYear(r.Context(), year)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(snaps)).Write(w)
}

func (s *Server) handleSnapshotsGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.Snapshots.GroupedByYear(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(groups)).Write(w)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	date := req.SnapshotDate
	if date == nil {
		date = req.Date
	}
	if date == nil {
		s.fail(w, r, log.OpCreate, core.Invalid("snapshotDate is required"))
		return
	}

	res, err := s.svc.Snapshots.Create(r.Context(), *date, req.CloneFromDate)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	res.Accounts = nonNil(res.Accounts)
	NewJSONResponse().Status(http.StatusCreated).Body(res).Write(w)
}

func (s *Server) handleBatchUpsert(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var accs []core.Account
	if err := DecodeJSON(w, r, &accs); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	snap, err := s.svc.Snapshots.BatchUpsert(r.Context(), date, accs)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleSnapshotExists(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	ok, err := s.svc.Snapshots.Exists(r.Context(), date)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(existsResponse{Date: date, Exists: ok}).Write(w)
}

// handleRecomputeSnapshot rewrites the totals from the accounts. The body, if
// any, is ignored: snapshot figures are never client-supplied.
func (s *Server) handleRecomputeSnapshot(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpRecompute, err)
		return
	}
	snap, err := s.svc.Snapshots.Recompute(r.Context(), date)
	if err != nil {
		s.fail(w, r, log.OpRecompute, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Snapshots.Delete(r.Context(), date); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}
