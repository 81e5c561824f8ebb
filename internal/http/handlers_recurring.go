package http

import (
	"net/http"

	"finplan/internal/log"
	"finplan/internal/services"
)

type processResponse struct {
	Processed int `json:"processed"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Recurring.List(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(items)).Write(w)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	item, err := s.svc.Recurring.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(item).Write(w)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var in services.RecurringInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	item, err := s.svc.Recurring.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(item).Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var in services.RecurringInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	item, err := s.svc.Recurring.Update(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(item).Write(w)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

// handleProcessRecurring runs one materialization pass outside the schedule.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Recurring.ProcessNow(r.Context())
	if err != nil {
		s.fail(w, r, log.OpProcess, err)
		return
	}
	NewJSONResponse().Body(processResponse{Processed: n}).Write(w)
}
