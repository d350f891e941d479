package http

import (
	"net/http"

	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/services"
)

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	installments, err := s.svc.ListInstallments(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	if installments == nil {
		installments = []core.Installment{}
	}
	NewJSONResponse().Body(installments).Write(w)
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	var i core.Installment
	if err := decodeJSON(r, &i); err != nil {
		s.badRequest(w, r, err)
		return
	}
	i.BuyerName = sanitizeInput(i.BuyerName)
	i.BuyerPhone = sanitizeInput(i.BuyerPhone)
	i.BuyerNationalID = sanitizeInput(i.BuyerNationalID)
	i.BuyerAddress = sanitizeInput(i.BuyerAddress)
	i.ProductName = sanitizeInput(i.ProductName)

	created, err := s.svc.CreateInstallment(r.Context(), i)
	if err != nil {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/installments/"+created.ID).
		Body(created).
		Write(w)
}

func (s *Server) handleGetInstallment(w http.ResponseWriter, r *http.Request) {
	i, err := s.svc.GetInstallment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(i).Write(w)
}

func (s *Server) handleInstallmentSummary(w http.ResponseWriter, r *http.Request) {
	today, err := parseToday(r, s.clock)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	sum, err := s.svc.InstallmentSummary(r.Context(), r.PathValue("id"), today)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(sum).Write(w)
}

func (s *Server) handleRecordInstallmentPayment(w http.ResponseWriter, r *http.Request) {
	var in services.InstallmentPaymentInput
	if err := decodeJSON(r, &in); err != nil {
		s.badRequest(w, r, err)
		return
	}

	i, p, err := s.svc.RecordInstallmentPayment(r.Context(), r.PathValue("id"), in)
	if err != nil {
		s.fail(w, r, applog.OpRecord, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]any{"installment": i, "payment": p}).
		Write(w)
}

func (s *Server) handleCorrectInstallmentPayment(w http.ResponseWriter, r *http.Request) {
	var in services.InstallmentPaymentInput
	if err := decodeJSON(r, &in); err != nil {
		s.badRequest(w, r, err)
		return
	}

	i, err := s.svc.CorrectInstallmentPayment(r.Context(), r.PathValue("id"), r.PathValue("pid"), in)
	if err != nil {
		s.fail(w, r, applog.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(i).Write(w)
}

func (s *Server) handleRemoveInstallmentPayment(w http.ResponseWriter, r *http.Request) {
	i, err := s.svc.RemoveInstallmentPayment(r.Context(), r.PathValue("id"), r.PathValue("pid"))
	if err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Body(i).Write(w)
}
