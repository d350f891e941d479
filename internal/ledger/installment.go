package ledger

import (
	"sort"

	"kameti/internal/core"
	"kameti/internal/period"
)

// installmentAccount adapts an installment sale to Account. Installments
// have a single timeline, so an entry's period is its position among the
// payments ordered by payment date.
type installmentAccount struct {
	i core.Installment
}

// InstallmentAccount wraps i as an Account.
func InstallmentAccount(i core.Installment) Account {
	return installmentAccount{i: i}
}

func orderedPayments(i core.Installment) []core.InstallmentPayment {
	ordered := append([]core.InstallmentPayment(nil), i.Payments...)
	sort.SliceStable(ordered, func(x, y int) bool {
		return ordered[x].PaymentDate.Before(ordered[y].PaymentDate)
	})
	return ordered
}

func (a installmentAccount) Entries() []Entry {
	ordered := orderedPayments(a.i)
	out := make([]Entry, 0, len(ordered))
	n := 0
	for _, p := range ordered {
		counted := p.Status == core.PaymentPaid
		e := Entry{Period: n, Amount: p.AmountPaid, Counted: counted}
		if counted {
			n++
		} else {
			e.Period = NotAssigned
		}
		out = append(out, e)
	}
	return out
}

func (a installmentAccount) AmountDue(int) core.Money {
	return a.i.MonthlyInstallment
}

func (a installmentAccount) Expected() core.Money {
	return a.i.TotalPayment
}

// NotAssigned is the period of an installment entry that does not count.
const NotAssigned = -1

// PaymentPeriod returns the period settled by the payment with paymentID, or
// NotAssigned when the payment is missing or does not count.
func PaymentPeriod(i core.Installment, paymentID string) int {
	n := 0
	for _, p := range orderedPayments(i) {
		counted := p.Status == core.PaymentPaid
		if p.ID == paymentID {
			if counted {
				return n
			}
			return NotAssigned
		}
		if counted {
			n++
		}
	}
	return NotAssigned
}

// InstallmentCollected sums Paid payments. The advance is not included.
func InstallmentCollected(i core.Installment) core.Money {
	return Collected(InstallmentAccount(i))
}

// InstallmentRemaining is total − advance − collected. It is not clamped: a
// value at or below zero is the close condition.
func InstallmentRemaining(i core.Installment) core.Money {
	return i.TotalPayment.Sub(i.AdvancePayment).Sub(InstallmentCollected(i))
}

// IsClosed reports whether the installment has been paid off.
func IsClosed(i core.Installment) bool {
	return InstallmentRemaining(i).Cents <= 0
}

// DeriveStatus returns the status implied by the payments, which callers
// persist alongside the installment.
func DeriveStatus(i core.Installment) core.InstallmentStatus {
	if IsClosed(i) {
		return core.InstallmentClosed
	}
	return core.InstallmentOpen
}

// ElapsedPeriods counts whole months between the start date and today, or
// returns period.NotStarted before the start date.
func ElapsedPeriods(i core.Installment, today core.Date) int {
	return period.Elapsed(core.Monthly, i.StartDate, today)
}

// ExpectedPaymentCount is the number of monthly payments that should have
// been made by today: min(elapsed+1, duration), or zero before the start.
func ExpectedPaymentCount(i core.Installment, today core.Date) int {
	elapsed := ElapsedPeriods(i, today)
	if elapsed < 0 {
		return 0
	}
	return min(elapsed+1, i.Duration)
}

// PaidCount counts Paid payments regardless of their amounts.
func PaidCount(i core.Installment) int {
	n := 0
	for _, p := range i.Payments {
		if p.Status == core.PaymentPaid {
			n++
		}
	}
	return n
}

// IsInstallmentOverdue compares how many payments are expected by today with
// how many were made. Installments assume a strict monthly cadence, so this
// is a count test rather than a per-period match.
func IsInstallmentOverdue(i core.Installment, today core.Date) bool {
	return ExpectedPaymentCount(i, today) > PaidCount(i)
}

// InstallmentSchedule lists each period of the installment with the payment
// assigned to it in chronological order.
func InstallmentSchedule(i core.Installment) []Line {
	entries := InstallmentAccount(i).Entries()
	due := i.MonthlyInstallment
	lines := make([]Line, 0, i.Duration)
	for p := 0; p < i.Duration; p++ {
		lines = append(lines, newLine(p, PeriodPaidTotal(entries, AnyHolder, p), due))
	}
	return lines
}
