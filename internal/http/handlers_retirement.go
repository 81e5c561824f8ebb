package http

import (
	"net/http"

	"finplan/internal/log"
	"finplan/internal/retirement"
)

type cloneRequest struct {
	SourceMonthYear string `json:"sourceMonthYear"`
	TargetMonthYear string `json:"targetMonthYear"`
}

func (s *Server) handleRetirementPlan(w http.ResponseWriter, r *http.Request) {
	var req retirement.Request
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpEvaluate, err)
		return
	}
	res, err := s.svc.Retirement.Evaluate(r.Context(), req)
	if err != nil {
		s.fail(w, r, log.OpEvaluate, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}

func (s *Server) handleRetirementHistory(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.Retirement.History(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(snaps)).Write(w)
}

func (s *Server) handleRetirementLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Retirement.Latest(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleRetirementInYear(w http.ResponseWriter, r *http.Request) {
	year, err := PathYear(r, "year")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	snaps, err := s.svc.Retirement.InYear(r.Context(), year)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(snaps)).Write(w)
}

func (s *Server) handleRetirementAtMonth(w http.ResponseWriter, r *http.Request) {
	month, err := PathString(r, "monthYear")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	snap, err := s.svc.Retirement.AtMonth(r.Context(), month)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleRetirementAtDate(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	snap, err := s.svc.Retirement.AtDate(r.Context(), date)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleRetirementDeleteMonth(w http.ResponseWriter, r *http.Request) {
	month, err := PathString(r, "monthYear")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Retirement.DeleteMonth(r.Context(), month); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleRetirementClone(w http.ResponseWriter, r *http.Request) {
	var req cloneRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	snap, err := s.svc.Retirement.Clone(r.Context(), req.SourceMonthYear, req.TargetMonthYear)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(snap).Write(w)
}
