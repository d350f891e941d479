// Package report renders receipts and spreadsheet exports from ledger data.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/divan/num2words"

	"kameti/internal/core"
	"kameti/internal/ledger"
	"kameti/internal/period"
)

var ErrPaymentNotFound = errors.New("payment not found")

const (
	KindCommittee   = "committee"
	KindInstallment = "installment"
)

// Receipt is the printable record of one payment.
type Receipt struct {
	Kind          string             `json:"kind"`
	EntityID      string             `json:"entityId"`
	Title         string             `json:"title"`
	PaymentID     string             `json:"paymentId"`
	Payer         string             `json:"payer"`
	PayerPhone    string             `json:"payerPhone,omitempty"`
	Period        int                `json:"periodIndex"`
	PeriodLabel   string             `json:"periodLabel,omitempty"`
	Amount        core.Money         `json:"amount"`
	AmountInWords string             `json:"amountInWords"`
	PaymentDate   core.Date          `json:"paymentDate"`
	Status        core.PaymentStatus `json:"status"`
	// Collected and Balance cover the member's period for committees and the
	// whole sale for installments.
	Collected core.Money `json:"collected"`
	Balance   core.Money `json:"balance"`
}

// CommitteeReceipt builds the receipt for paymentID. payer supplies the
// member's display details; an empty name falls back to the member id.
func CommitteeReceipt(c core.Committee, payer core.Member, paymentID, locale string) (Receipt, error) {
	for _, p := range c.Payments {
		if p.ID != paymentID {
			continue
		}
		name := payer.Name
		if name == "" {
			name = p.MemberID
		}
		paid := ledger.MemberPeriodPaid(c, p.MemberID, p.Period)
		return Receipt{
			Kind:          KindCommittee,
			EntityID:      c.ID,
			Title:         c.Title,
			PaymentID:     p.ID,
			Payer:         name,
			PayerPhone:    payer.Phone,
			Period:        p.Period,
			PeriodLabel:   period.Label(c.StartDate, p.Period, c.Type, locale),
			Amount:        p.AmountPaid,
			AmountInWords: AmountInWords(p.AmountPaid),
			PaymentDate:   p.PaymentDate,
			Status:        p.Status,
			Collected:     paid,
			Balance:       ledger.MemberDue(c, p.MemberID).Sub(paid).ClampZero(),
		}, nil
	}
	return Receipt{}, fmt.Errorf("committee %s payment %s: %w", c.ID, paymentID, ErrPaymentNotFound)
}

// InstallmentReceipt builds the receipt for paymentID on an installment sale.
func InstallmentReceipt(i core.Installment, paymentID, locale string) (Receipt, error) {
	for _, p := range i.Payments {
		if p.ID != paymentID {
			continue
		}
		r := Receipt{
			Kind:          KindInstallment,
			EntityID:      i.ID,
			Title:         i.ProductName,
			PaymentID:     p.ID,
			Payer:         i.BuyerName,
			PayerPhone:    i.BuyerPhone,
			Period:        ledger.PaymentPeriod(i, p.ID),
			Amount:        p.AmountPaid,
			AmountInWords: AmountInWords(p.AmountPaid),
			PaymentDate:   p.PaymentDate,
			Status:        p.Status,
			Collected:     ledger.InstallmentCollected(i),
			Balance:       ledger.InstallmentRemaining(i).ClampZero(),
		}
		if r.Period != ledger.NotAssigned {
			r.PeriodLabel = period.MonthLabel(i.StartDate, r.Period, locale)
		}
		return r, nil
	}
	return Receipt{}, fmt.Errorf("installment %s payment %s: %w", i.ID, paymentID, ErrPaymentNotFound)
}

// AmountInWords spells m out in English, e.g. "one thousand five hundred
// rupees and fifty paisa". Whole amounts omit the paisa part.
func AmountInWords(m core.Money) string {
	cents := m.Cents
	if cents < 0 {
		cents = -cents
	}
	units := int(cents / 100)
	paisa := int(cents % 100)

	words := num2words.Convert(units) + " rupees"
	if paisa > 0 {
		words += " and " + num2words.Convert(paisa) + " paisa"
	}
	if m.IsNegative() {
		words = "minus " + words
	}
	return words
}

// Text renders the receipt as plain text for printing or messaging.
func (r Receipt) Text() string {
	var b strings.Builder
	if r.Kind == KindInstallment {
		fmt.Fprintf(&b, "Installment receipt: %s\n", r.Title)
	} else {
		fmt.Fprintf(&b, "Committee receipt: %s\n", r.Title)
	}
	fmt.Fprintf(&b, "Receipt no: %s\n", r.PaymentID)
	fmt.Fprintf(&b, "Received from: %s\n", r.Payer)
	if r.PeriodLabel != "" {
		fmt.Fprintf(&b, "For: %s (period %d)\n", r.PeriodLabel, r.Period+1)
	}
	fmt.Fprintf(&b, "Date: %s\n", r.PaymentDate)
	fmt.Fprintf(&b, "Amount: %s\n", r.Amount)
	fmt.Fprintf(&b, "In words: %s only\n", r.AmountInWords)
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	fmt.Fprintf(&b, "Paid to date: %s\n", r.Collected)
	fmt.Fprintf(&b, "Balance: %s\n", r.Balance)
	return b.String()
}
