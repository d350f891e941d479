package http

import (
	"fmt"
	"net/http"

	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/services"
)

func (s *Server) handleListCommittees(w http.ResponseWriter, r *http.Request) {
	committees, err := s.svc.ListCommittees(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	if committees == nil {
		committees = []core.Committee{}
	}
	NewJSONResponse().Body(committees).Write(w)
}

func (s *Server) handleCreateCommittee(w http.ResponseWriter, r *http.Request) {
	var c core.Committee
	if err := decodeJSON(r, &c); err != nil {
		s.badRequest(w, r, err)
		return
	}
	c.Title = sanitizeInput(c.Title)

	created, err := s.svc.CreateCommittee(r.Context(), c)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/committees/"+created.ID).
		Body(created).
		Write(w)
}

func (s *Server) handleGetCommittee(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCommittee(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleCommitteeSummary(w http.ResponseWriter, r *http.Request) {
	today, err := parseToday(r, s.clock)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	sum, err := s.svc.CommitteeSummary(r.Context(), r.PathValue("id"), today)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(sum).Write(w)
}

func (s *Server) handleRecordCommitteePayment(w http.ResponseWriter, r *http.Request) {
	var in services.CommitteePaymentInput
	if err := decodeJSON(r, &in); err != nil {
		s.badRequest(w, r, err)
		return
	}

	c, p, err := s.svc.RecordCommitteePayment(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, r, applog.OpRecord, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]any{"committee": c, "payment": p}).
		Write(w)
}

func (s *Server) handleClearCommitteePayment(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.ClearCommitteePayment(r.Context(), r.PathValue("id"), r.PathValue("pid"))
	if err != nil {
		s.fail(w, r, applog.OpClear, err)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleToggleTurn(w http.ResponseWriter, r *http.Request) {
	slot, err := pathInt(r, "slot")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	c, err := s.svc.ToggleTurn(r.Context(), r.PathValue("id"), slot)
	if err != nil {
		s.fail(w, r, applog.OpToggle, err)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}

type moveTurnRequest struct {
	Period *int `json:"periodIndex"`
}

func (s *Server) handleMoveTurn(w http.ResponseWriter, r *http.Request) {
	slot, err := pathInt(r, "slot")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	var req moveTurnRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}
	if req.Period == nil {
		s.fail(w, r, applog.OpMove, fmt.Errorf("%w: periodIndex is required", services.ErrInvalidInput))
		return
	}

	c, err := s.svc.MoveTurn(r.Context(), r.PathValue("id"), slot, *req.Period)
	if err != nil {
		s.fail(w, r, applog.OpMove, err)
		return
	}
	NewJSONResponse().Body(c).Write(w)
}
