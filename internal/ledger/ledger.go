// Package ledger derives balances and period status from recorded payments.
//
// Committees and installment accounts are both expressed as an Account: a list
// of entries plus the amount due for a period. The generic functions in this
// file work on any Account; committee.go and installment.go adapt the two
// entity families and add the rules that differ between them.
package ledger

import (
	"kameti/internal/core"
)

// PeriodStatus is the settlement state of one period.
type PeriodStatus string

const (
	Unpaid  PeriodStatus = "Unpaid"
	Partial PeriodStatus = "Partial"
	Paid    PeriodStatus = "Paid"
)

// AnyHolder matches entries of every holder.
const AnyHolder = ""

// Entry is one payment as seen by the aggregation functions.
type Entry struct {
	Holder  string // member id for committees, empty for installment accounts
	Period  int
	Amount  core.Money
	Counted bool // cleared or paid; pending entries never count
}

// Account is the capability shared by committees and installment accounts.
type Account interface {
	Entries() []Entry
	// AmountDue is the amount expected for one period.
	AmountDue(period int) core.Money
	// Expected is the amount expected over the account's whole life.
	Expected() core.Money
}

// PeriodPaidTotal sums counted entries for period, restricted to holder unless
// holder is AnyHolder.
func PeriodPaidTotal(entries []Entry, holder string, period int) core.Money {
	var total core.Money
	for _, e := range entries {
		if !e.Counted || e.Period != period {
			continue
		}
		if holder != AnyHolder && e.Holder != holder {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// StatusFor classifies paid against due. A period is Paid once paid reaches
// due; ties favour Paid.
func StatusFor(paid, due core.Money) PeriodStatus {
	switch {
	case paid.Cents >= due.Cents:
		return Paid
	case paid.Cents > 0:
		return Partial
	default:
		return Unpaid
	}
}

// Collected sums every counted entry of the account.
func Collected(a Account) core.Money {
	var total core.Money
	for _, e := range a.Entries() {
		if e.Counted {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Line is the settlement of one period for a statement or schedule.
type Line struct {
	Period    int          `json:"periodIndex"`
	Due       core.Money   `json:"due"`
	Paid      core.Money   `json:"paid"`
	Remaining core.Money   `json:"remaining"`
	Status    PeriodStatus `json:"status"`
}

func newLine(period int, paid, due core.Money) Line {
	return Line{
		Period:    period,
		Due:       due,
		Paid:      paid,
		Remaining: due.Sub(paid).ClampZero(),
		Status:    StatusFor(paid, due),
	}
}
