package http

import (
	"net/http"

	"finplan/internal/core"
	"finplan/internal/log"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accs, err := s.svc.Accounts.ListAccounts(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(accs)).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	acc, err := s.svc.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(acc).Write(w)
}

func (s *Server) handleAccountByBusinessID(w http.ResponseWriter, r *http.Request) {
	slug, err := PathString(r, "accountId")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	acc, err := s.svc.Accounts.LatestByBusinessID(r.Context(), slug)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(acc).Write(w)
}

func (s *Server) handleAccountsAt(w http.ResponseWriter, r *http.Request) {
	date, err := PathDate(r, "date")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	accs, err := s.svc.Accounts.AccountsAt(r.Context(), date)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(accs)).Write(w)
}

func (s *Server) handleAccountsByType(w http.ResponseWriter, r *http.Request) {
	s.listByType(w, r, s.svc.Accounts.ByType)
}

func (s *Server) handleActiveAccountsByType(w http.ResponseWriter, r *http.Request) {
	s.listByType(w, r, s.svc.Accounts.ActiveByType)
}

func (s *Server) listByType(w http.ResponseWriter, r *http.Request, list accountLister[core.AccountType]) {
	kind, err := PathAccountType(r, "kind")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	accs, err := list(r.Context(), kind)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(accs)).Write(w)
}

func (s *Server) handleAccountsByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := PathAccountStatus(r, "status")
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	accs, err := s.svc.Accounts.ByStatus(r.Context(), status)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(accs)).Write(w)
}

func (s *Server) handleHighestInterest(w http.ResponseWriter, r *http.Request) {
	accs, err := s.svc.Accounts.HighestInterest(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(nonNil(accs)).Write(w)
}

// handleTotalDebt answers with a bare JSON number.
func (s *Server) handleTotalDebt(w http.ResponseWriter, r *http.Request) {
	total, err := s.svc.Accounts.TotalDebt(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(total).Write(w)
}

func (s *Server) handleTotalDebtByType(w http.ResponseWriter, r *http.Request) {
	kind, err := PathAccountType(r, "kind")
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	total, err := s.svc.Accounts.TotalDebtByType(r.Context(), kind)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(total).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	acc, err := s.svc.Accounts.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(acc).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	acc, err := s.svc.Accounts.Update(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(acc).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := PathString(r, "id")
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Accounts.Delete(r.Context(), id); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}
