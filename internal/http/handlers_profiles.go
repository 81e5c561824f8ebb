package http

import (
	"net/http"

	"finplan/internal/log"
	"finplan/internal/services"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.Profiles.List(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(profiles)).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	p, err := s.svc.Profiles.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	p, err := s.svc.Profiles.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(p).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var in services.ProfileInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	p, err := s.svc.Profiles.Update(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(p).Write(w)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Profiles.Delete(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}
