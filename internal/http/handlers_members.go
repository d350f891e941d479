package http

import (
	"net/http"

	"kameti/internal/core"
	applog "kameti/internal/log"
)

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.ListMembers(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	if members == nil {
		members = []core.Member{}
	}
	NewJSONResponse().Body(members).Write(w)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m core.Member
	if err := decodeJSON(r, &m); err != nil {
		s.badRequest(w, r, err)
		return
	}
	cleanMember(&m)

	created, err := s.svc.CreateMember(r.Context(), m)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/members/"+created.ID).
		Body(created).
		Write(w)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.GetMember(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(m).Write(w)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var m core.Member
	if err := decodeJSON(r, &m); err != nil {
		s.badRequest(w, r, err)
		return
	}
	cleanMember(&m)
	m.ID = r.PathValue("id")

	updated, err := s.svc.UpdateMember(r.Context(), m)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func cleanMember(m *core.Member) {
	m.Name = sanitizeInput(m.Name)
	m.Phone = sanitizeInput(m.Phone)
	m.NationalID = sanitizeInput(m.NationalID)
	m.Address = sanitizeInput(m.Address)
}

// badRequest answers a request whose body or parameters could not be read.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	resp := BadRequestError(err.Error())
	body := resp.body.(ErrorBody)
	body.RequestID = requestID(r)
	resp.Body(body).Write(w)
}
