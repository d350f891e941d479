package ledger

import (
	"kameti/internal/core"
	"kameti/internal/period"
)

// committeeAccount adapts a committee to Account. AmountDue is the pool for a
// period across every share.
type committeeAccount struct {
	c core.Committee
}

// CommitteeAccount wraps c as an Account.
func CommitteeAccount(c core.Committee) Account {
	return committeeAccount{c: c}
}

func (a committeeAccount) Entries() []Entry {
	out := make([]Entry, 0, len(a.c.Payments))
	for _, p := range a.c.Payments {
		out = append(out, Entry{
			Holder:  p.MemberID,
			Period:  p.Period,
			Amount:  p.AmountPaid,
			Counted: p.Status == core.PaymentCleared,
		})
	}
	return out
}

func (a committeeAccount) AmountDue(int) core.Money {
	return a.c.AmountPerMember.Mul(len(a.c.MemberIDs))
}

func (a committeeAccount) Expected() core.Money {
	return a.c.AmountPerMember.Mul(len(a.c.MemberIDs) * a.c.Duration)
}

// CommitteeExpected is amountPerMember × shares × duration.
func CommitteeExpected(c core.Committee) core.Money {
	return CommitteeAccount(c).Expected()
}

// CommitteeCollected sums cleared payments over all periods and members.
func CommitteeCollected(c core.Committee) core.Money {
	return Collected(CommitteeAccount(c))
}

// CommitteeRemaining is expected minus collected, never below zero.
func CommitteeRemaining(c core.Committee) core.Money {
	return CommitteeExpected(c).Sub(CommitteeCollected(c)).ClampZero()
}

// MemberDue is what memberID owes for one period: one amount per share.
func MemberDue(c core.Committee, memberID string) core.Money {
	return c.AmountPerMember.Mul(c.Shares(memberID))
}

// MemberPeriodPaid sums memberID's cleared payments for period.
func MemberPeriodPaid(c core.Committee, memberID string, p int) core.Money {
	return PeriodPaidTotal(CommitteeAccount(c).Entries(), memberID, p)
}

// MemberPeriodPending sums memberID's payments for period that are not yet cleared.
func MemberPeriodPending(c core.Committee, memberID string, p int) core.Money {
	var total core.Money
	for _, pay := range c.Payments {
		if pay.MemberID == memberID && pay.Period == p && pay.Status != core.PaymentCleared {
			total = total.Add(pay.AmountPaid)
		}
	}
	return total
}

// MemberPeriodStatus classifies memberID's settlement of period.
func MemberPeriodStatus(c core.Committee, memberID string, p int) PeriodStatus {
	return StatusFor(MemberPeriodPaid(c, memberID, p), MemberDue(c, memberID))
}

// PeriodCollected sums cleared payments of every member for period.
func PeriodCollected(c core.Committee, p int) core.Money {
	return PeriodPaidTotal(CommitteeAccount(c).Entries(), AnyHolder, p)
}

// PeriodExpected is the pool expected for a single period.
func PeriodExpected(c core.Committee) core.Money {
	return CommitteeAccount(c).AmountDue(0)
}

// MemberStatement lists memberID's settlement for every period of c.
func MemberStatement(c core.Committee, memberID string) []Line {
	entries := CommitteeAccount(c).Entries()
	due := MemberDue(c, memberID)
	lines := make([]Line, 0, c.Duration)
	for p := 0; p < c.Duration; p++ {
		lines = append(lines, newLine(p, PeriodPaidTotal(entries, memberID, p), due))
	}
	return lines
}

// OverdueMembers returns, in membership order, the members without any
// cleared payment for the committee's current period. Nothing is overdue
// before the committee starts.
func OverdueMembers(c core.Committee, today core.Date) []string {
	idx := period.CurrentIndex(c, today)
	if idx < 0 {
		return nil
	}
	paid := make(map[string]bool)
	for _, p := range c.Payments {
		if p.Period == idx && p.Status == core.PaymentCleared {
			paid[p.MemberID] = true
		}
	}
	var out []string
	for _, id := range c.DistinctMembers() {
		if !paid[id] {
			out = append(out, id)
		}
	}
	return out
}
