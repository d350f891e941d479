package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"kameti/internal/amqp"
	"kameti/internal/core"
	"kameti/internal/ledger"
	applog "kameti/internal/log"
	"kameti/internal/store"
)

var ErrInstallmentClosed = errors.New("installment is closed")

// InstallmentPaymentInput is a buyer payment. Status defaults to Paid and
// PaymentDate to today.
type InstallmentPaymentInput struct {
	Amount      core.Money         `json:"amountPaid"`
	PaymentDate core.Date          `json:"paymentDate"`
	Status      core.PaymentStatus `json:"status"`
}

// CreateInstallment stores a new installment account with its derived status.
func (s *LedgerService) CreateInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	i.Payments = nil
	if err := i.Validate(); err != nil {
		return core.Installment{}, invalid(err)
	}
	i.Status = ledger.DeriveStatus(i)

	created, err := s.store.CreateInstallment(ctx, i)
	if err != nil {
		return core.Installment{}, fmt.Errorf("save installment: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Installment created",
		applog.FieldInstallmentID, created.ID,
		"product", created.ProductName,
		"total_cents", created.TotalPayment.Cents,
		"advance_cents", created.AdvancePayment.Cents,
		applog.FieldStatus, created.Status)

	ev := amqp.NewLedgerEvent(amqp.InstallmentCreated, created.ID, created.Version)
	ev.EntityTitle = created.ProductName
	ev.Payer = created.BuyerName
	ev.AmountCents = created.TotalPayment.Cents
	s.publish(ctx, ev)
	return created, nil
}

func (s *LedgerService) GetInstallment(ctx context.Context, id string) (core.Installment, error) {
	return s.store.GetInstallment(ctx, id)
}

func (s *LedgerService) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	return s.store.ListInstallments(ctx)
}

// RecordInstallmentPayment appends a payment. Paying a closed account or
// paying more than what remains is rejected.
func (s *LedgerService) RecordInstallmentPayment(ctx context.Context, installmentID string, in InstallmentPaymentInput) (core.Installment, core.InstallmentPayment, error) {
	i, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return core.Installment{}, core.InstallmentPayment{}, err
	}

	p := s.newInstallmentPayment(i.ID, uuid.NewString(), in)
	if err := checkInstallmentPayment(p); err != nil {
		return core.Installment{}, core.InstallmentPayment{}, err
	}
	if ledger.IsClosed(i) {
		return core.Installment{}, core.InstallmentPayment{}, invalid(ErrInstallmentClosed)
	}

	i.Payments = append(i.Payments, p)
	if err := checkRemaining(i); err != nil {
		return core.Installment{}, core.InstallmentPayment{}, err
	}

	saved, err := s.saveInstallment(ctx, i)
	if err != nil {
		return core.Installment{}, core.InstallmentPayment{}, err
	}

	slog.InfoContext(ctx, "Installment payment recorded",
		applog.FieldInstallmentID, saved.ID,
		applog.FieldPaymentID, p.ID,
		applog.FieldAmountCents, p.AmountPaid.Cents,
		applog.FieldStatus, saved.Status)

	s.publish(ctx, installmentPaymentEvent(amqp.InstallmentPaymentRecorded, saved, p))
	return saved, p, nil
}

// CorrectInstallmentPayment replaces the amount, date and status of an
// existing payment. The corrected ledger may not go below zero remaining.
func (s *LedgerService) CorrectInstallmentPayment(ctx context.Context, installmentID, paymentID string, in InstallmentPaymentInput) (core.Installment, error) {
	i, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return core.Installment{}, err
	}
	idx := slices.IndexFunc(i.Payments, func(p core.InstallmentPayment) bool { return p.ID == paymentID })
	if idx < 0 {
		return core.Installment{}, fmt.Errorf("payment %s: %w", paymentID, store.ErrNotFound)
	}

	if in.PaymentDate.IsZero() {
		in.PaymentDate = i.Payments[idx].PaymentDate
	}
	p := s.newInstallmentPayment(i.ID, paymentID, in)
	if err := checkInstallmentPayment(p); err != nil {
		return core.Installment{}, err
	}
	i.Payments[idx] = p
	if err := checkRemaining(i); err != nil {
		return core.Installment{}, err
	}

	saved, err := s.saveInstallment(ctx, i)
	if err != nil {
		return core.Installment{}, err
	}

	slog.InfoContext(ctx, "Installment payment corrected",
		applog.FieldInstallmentID, saved.ID,
		applog.FieldPaymentID, p.ID,
		applog.FieldAmountCents, p.AmountPaid.Cents,
		applog.FieldStatus, saved.Status)

	s.publish(ctx, installmentPaymentEvent(amqp.InstallmentPaymentCorrected, saved, p))
	return saved, nil
}

// RemoveInstallmentPayment deletes a payment recorded in error. Removing a
// payment can reopen a closed account.
func (s *LedgerService) RemoveInstallmentPayment(ctx context.Context, installmentID, paymentID string) (core.Installment, error) {
	i, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return core.Installment{}, err
	}
	idx := slices.IndexFunc(i.Payments, func(p core.InstallmentPayment) bool { return p.ID == paymentID })
	if idx < 0 {
		return core.Installment{}, fmt.Errorf("payment %s: %w", paymentID, store.ErrNotFound)
	}
	removed := i.Payments[idx]
	i.Payments = slices.Delete(i.Payments, idx, idx+1)

	saved, err := s.saveInstallment(ctx, i)
	if err != nil {
		return core.Installment{}, err
	}

	slog.InfoContext(ctx, "Installment payment removed",
		applog.FieldInstallmentID, saved.ID,
		applog.FieldPaymentID, removed.ID,
		applog.FieldAmountCents, removed.AmountPaid.Cents,
		applog.FieldStatus, saved.Status)

	ev := installmentPaymentEvent(amqp.InstallmentPaymentRemoved, saved, removed)
	ev.Period = ledger.NotAssigned
	s.publish(ctx, ev)
	return saved, nil
}

func (s *LedgerService) newInstallmentPayment(installmentID, paymentID string, in InstallmentPaymentInput) core.InstallmentPayment {
	p := core.InstallmentPayment{
		ID:            paymentID,
		InstallmentID: installmentID,
		AmountPaid:    in.Amount,
		PaymentDate:   in.PaymentDate,
		Status:        in.Status,
	}
	if p.Status == "" {
		p.Status = core.PaymentPaid
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.clock.Today()
	}
	return p
}

func (s *LedgerService) saveInstallment(ctx context.Context, i core.Installment) (core.Installment, error) {
	i.Status = ledger.DeriveStatus(i)
	saved, err := s.store.SaveInstallment(ctx, i)
	if err != nil {
		return core.Installment{}, fmt.Errorf("save installment: %w", err)
	}
	s.invalidate()
	return saved, nil
}

func checkInstallmentPayment(p core.InstallmentPayment) error {
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	if p.Status != core.PaymentPaid {
		return invalid(fmt.Errorf("%w: installment payments are %s only", core.ErrInvalidStatus, core.PaymentPaid))
	}
	return nil
}

// checkRemaining rejects a payment set whose counted total exceeds what the
// buyer owes after the advance.
func checkRemaining(i core.Installment) error {
	if rem := ledger.InstallmentRemaining(i); rem.IsNegative() {
		return invalid(fmt.Errorf("%w: exceeds balance by %s", ErrOverpayment, core.Money{}.Sub(rem)))
	}
	return nil
}

func installmentPaymentEvent(t amqp.EventType, i core.Installment, p core.InstallmentPayment) *amqp.LedgerEvent {
	ev := amqp.NewLedgerEvent(t, i.ID, i.Version)
	ev.EntityTitle = i.ProductName
	ev.PaymentID = p.ID
	ev.Payer = i.BuyerName
	ev.Period = ledger.PaymentPeriod(i, p.ID)
	ev.AmountCents = p.AmountPaid.Cents
	ev.PaymentDate = p.PaymentDate.String()
	ev.Status = string(p.Status)
	return ev
}
