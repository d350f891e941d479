package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kameti/internal/amqp"
	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/sheets"
)

// LedgerReader is the part of the store the worker reads during reconciliation.
type LedgerReader interface {
	ListCommittees(ctx context.Context) ([]core.Committee, error)
	ListInstallments(ctx context.Context) ([]core.Installment, error)
}

// MirrorWorker copies ledger events into the payments spreadsheet.
type MirrorWorker struct {
	store  LedgerReader
	mirror sheets.PaymentMirror
	lister sheets.RowLister
}

// NewMirrorWorker builds a worker. lister may be nil, in which case
// Reconcile is a no-op.
func NewMirrorWorker(store LedgerReader, mirror sheets.PaymentMirror, lister sheets.RowLister) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror, lister: lister}
}

// HandleLedgerEvent appends one row for payment and payout-turn events.
// Other event types are acknowledged without writing.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	row, ok := rowFromEvent(ev)
	if !ok {
		slog.DebugContext(ctx, "Ledger event not mirrored", applog.FieldEventID, ev.ID, applog.FieldEventType, ev.Type)
		return nil
	}

	ref, err := w.mirror.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored ledger event",
		applog.FieldEventID, ev.ID,
		applog.FieldEventType, ev.Type,
		applog.FieldEntityID, ev.EntityID,
		"sheets_ref", ref,
		applog.FieldAmountCents, ev.AmountCents)
	return nil
}

func rowFromEvent(ev *amqp.LedgerEvent) (sheets.Row, bool) {
	switch {
	case ev.Type.IsPayment(), ev.Type == amqp.PayoutTurnToggled, ev.Type == amqp.PayoutTurnMoved:
	default:
		return sheets.Row{}, false
	}
	row := sheets.Row{
		EventID:     ev.ID,
		Event:       string(ev.Type),
		EntityID:    ev.EntityID,
		EntityTitle: ev.EntityTitle,
		PaymentID:   ev.PaymentID,
		Payer:       ev.Payer,
		Period:      ev.Period,
		Amount:      core.Money{Cents: ev.AmountCents},
		Status:      ev.Status,
	}
	if d, err := core.ParseDate(ev.PaymentDate); err == nil {
		row.PaymentDate = d
	}
	return row, true
}

// Reconcile appends rows for stored payments that never reached the mirror,
// e.g. because the broker was down when they were recorded.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	if w.lister == nil {
		return nil
	}
	rows, err := w.lister.ListRows(ctx)
	if err != nil {
		return fmt.Errorf("list mirror rows: %w", err)
	}
	mirrored := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r.PaymentID != "" {
			mirrored[r.PaymentID] = struct{}{}
		}
	}

	missing, err := w.missingRows(ctx, mirrored)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		slog.InfoContext(ctx, "Mirror is up to date", "rows", len(rows))
		return nil
	}

	successCount := 0
	errorCount := 0
	for _, r := range missing {
		if _, err := w.mirror.AppendRow(ctx, r); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror payment during reconcile",
				applog.FieldPaymentID, r.PaymentID, applog.FieldError, err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Mirror reconcile completed",
		"total", len(missing),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *MirrorWorker) missingRows(ctx context.Context, mirrored map[string]struct{}) ([]sheets.Row, error) {
	committees, err := w.store.ListCommittees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list committees: %w", err)
	}
	installments, err := w.store.ListInstallments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	var out []sheets.Row
	for _, c := range committees {
		for _, p := range c.Payments {
			if _, ok := mirrored[p.ID]; ok {
				continue
			}
			out = append(out, sheets.Row{
				EventID:     "reconcile:" + p.ID,
				Event:       string(amqp.CommitteePaymentRecorded),
				EntityID:    c.ID,
				EntityTitle: c.Title,
				PaymentID:   p.ID,
				Payer:       p.MemberID,
				Period:      p.Period,
				Amount:      p.AmountPaid,
				PaymentDate: p.PaymentDate,
				Status:      string(p.Status),
			})
		}
	}
	for _, i := range installments {
		for _, p := range i.Payments {
			if _, ok := mirrored[p.ID]; ok {
				continue
			}
			out = append(out, sheets.Row{
				EventID:     "reconcile:" + p.ID,
				Event:       string(amqp.InstallmentPaymentRecorded),
				EntityID:    i.ID,
				EntityTitle: i.ProductName,
				PaymentID:   p.ID,
				Payer:       i.BuyerName,
				Amount:      p.AmountPaid,
				PaymentDate: p.PaymentDate,
				Status:      string(p.Status),
			})
		}
	}
	return out, nil
}
