package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kameti/internal/core"
	"kameti/internal/ledger"
	"kameti/internal/period"
)

// Sheet names in the exported workbook.
const (
	SheetCommittees   = "Committees"
	SheetInstallments = "Installments"
	SheetPayments     = "Payments"
)

var (
	committeeHeader = []any{"ID", "Title", "Type", "Start Date", "Duration", "Amount Per Member", "Shares",
		"Current Period", "Expected", "Collected", "Remaining", "Overdue Members"}
	installmentHeader = []any{"ID", "Buyer", "Phone", "Product", "Total", "Advance", "Monthly", "Start Date",
		"Duration", "Collected", "Remaining", "Status", "Overdue"}
	paymentHeader = []any{"Kind", "Entity ID", "Entity", "Payment ID", "Payer", "Period", "Amount", "Payment Date", "Status"}
)

// ExportWorkbook writes committees, installments and every payment to w as
// an XLSX workbook with derived totals as of today.
func ExportWorkbook(w io.Writer, committees []core.Committee, installments []core.Installment, today core.Date) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCommittees); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetInstallments, SheetPayments} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	committeeRows := [][]any{committeeHeader}
	installmentRows := [][]any{installmentHeader}
	paymentRows := [][]any{paymentHeader}

	for _, c := range committees {
		committeeRows = append(committeeRows, []any{
			c.ID,
			c.Title,
			string(c.Type),
			c.StartDate.String(),
			c.Duration,
			amount(c.AmountPerMember),
			len(c.MemberIDs),
			period.CurrentIndex(c, today),
			amount(ledger.CommitteeExpected(c)),
			amount(ledger.CommitteeCollected(c)),
			amount(ledger.CommitteeRemaining(c)),
			len(ledger.OverdueMembers(c, today)),
		})
		for _, p := range c.Payments {
			paymentRows = append(paymentRows, []any{
				KindCommittee, c.ID, c.Title, p.ID, p.MemberID, p.Period,
				amount(p.AmountPaid), p.PaymentDate.String(), string(p.Status),
			})
		}
	}

	for _, i := range installments {
		installmentRows = append(installmentRows, []any{
			i.ID,
			i.BuyerName,
			i.BuyerPhone,
			i.ProductName,
			amount(i.TotalPayment),
			amount(i.AdvancePayment),
			amount(i.MonthlyInstallment),
			i.StartDate.String(),
			i.Duration,
			amount(ledger.InstallmentCollected(i)),
			amount(ledger.InstallmentRemaining(i)),
			string(ledger.DeriveStatus(i)),
			!ledger.IsClosed(i) && ledger.IsInstallmentOverdue(i, today),
		})
		for _, p := range i.Payments {
			paymentRows = append(paymentRows, []any{
				KindInstallment, i.ID, i.ProductName, p.ID, i.BuyerName, ledger.PaymentPeriod(i, p.ID),
				amount(p.AmountPaid), p.PaymentDate.String(), string(p.Status),
			})
		}
	}

	for sheet, rows := range map[string][][]any{
		SheetCommittees:   committeeRows,
		SheetInstallments: installmentRows,
		SheetPayments:     paymentRows,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

// amount renders money as a spreadsheet number in currency units.
func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}
