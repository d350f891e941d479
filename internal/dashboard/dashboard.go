// Package dashboard reduces committee and installment collections into the
// aggregate figures shown on the overview screen.
package dashboard

import (
	"sort"

	"kameti/internal/core"
	"kameti/internal/ledger"
	"kameti/internal/period"
	"kameti/internal/rotation"
)

const (
	DefaultTopN       = 5
	DefaultWindowDays = 7
)

type Options struct {
	TopN       int // contributors to keep; DefaultTopN when zero
	WindowDays int // upcoming payout window; DefaultWindowDays when zero
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	return o
}

type CommitteeMetrics struct {
	Total     int        `json:"total"`
	Active    int        `json:"active"`
	Completed int        `json:"completed"`
	Expected  core.Money `json:"expected"`
	Collected core.Money `json:"collected"`
	Remaining core.Money `json:"remaining"`
}

type InstallmentMetrics struct {
	Total      int        `json:"total"`
	Active     int        `json:"active"`
	Closed     int        `json:"closed"`
	TotalValue core.Money `json:"totalValue"`
	Collected  core.Money `json:"collected"` // advances plus payments
	Remaining  core.Money `json:"remaining"`
}

// PeriodMetrics restricts committee figures to each committee's current period.
type PeriodMetrics struct {
	Expected  core.Money `json:"expected"`
	Collected core.Money `json:"collected"`
	Remaining core.Money `json:"remaining"`
}

type Contributor struct {
	MemberID string     `json:"memberId"`
	Total    core.Money `json:"total"`
}

type UpcomingPayout struct {
	CommitteeID    string    `json:"committeeId"`
	CommitteeTitle string    `json:"committeeTitle"`
	Slot           int       `json:"slot"`
	MemberID       string    `json:"memberId"`
	TurnPeriod     int       `json:"turnPeriodIndex"`
	Date           core.Date `json:"date"`
	DaysUntil      int       `json:"daysUntil"`
}

type Summary struct {
	Today           core.Date          `json:"today"`
	Committees      CommitteeMetrics   `json:"committees"`
	Installments    InstallmentMetrics `json:"installments"`
	CurrentPeriod   PeriodMetrics      `json:"currentPeriod"`
	TopContributors []Contributor      `json:"topContributors"`
	UpcomingPayouts []UpcomingPayout   `json:"upcomingPayouts"`
}

// IsCommitteeActive reports whether today falls inside the committee's
// schedule: start <= today < start + duration periods. Collection progress
// does not matter.
func IsCommitteeActive(c core.Committee, today core.Date) bool {
	return !today.Before(c.StartDate) && today.Before(period.End(c))
}

// Summarize computes every dashboard figure for today.
func Summarize(committees []core.Committee, installments []core.Installment, today core.Date, opts Options) Summary {
	opts = opts.withDefaults()
	return Summary{
		Today:           today,
		Committees:      committeeMetrics(committees, today),
		Installments:    installmentMetrics(installments),
		CurrentPeriod:   currentPeriodMetrics(committees, today),
		TopContributors: TopContributors(committees, opts.TopN),
		UpcomingPayouts: UpcomingPayouts(committees, today, opts.WindowDays),
	}
}

func committeeMetrics(committees []core.Committee, today core.Date) CommitteeMetrics {
	m := CommitteeMetrics{Total: len(committees)}
	for _, c := range committees {
		if IsCommitteeActive(c, today) {
			m.Active++
		}
		m.Expected = m.Expected.Add(ledger.CommitteeExpected(c))
		m.Collected = m.Collected.Add(ledger.CommitteeCollected(c))
		m.Remaining = m.Remaining.Add(ledger.CommitteeRemaining(c))
	}
	m.Completed = m.Total - m.Active
	return m
}

func installmentMetrics(installments []core.Installment) InstallmentMetrics {
	m := InstallmentMetrics{Total: len(installments)}
	for _, i := range installments {
		if ledger.IsClosed(i) {
			m.Closed++
		} else {
			m.Active++
		}
		m.TotalValue = m.TotalValue.Add(i.TotalPayment)
		m.Collected = m.Collected.Add(i.AdvancePayment).Add(ledger.InstallmentCollected(i))
		m.Remaining = m.Remaining.Add(ledger.InstallmentRemaining(i))
	}
	return m
}

func currentPeriodMetrics(committees []core.Committee, today core.Date) PeriodMetrics {
	var m PeriodMetrics
	for _, c := range committees {
		idx := period.CurrentIndex(c, today)
		if idx < 0 {
			continue
		}
		expected := ledger.PeriodExpected(c)
		collected := ledger.PeriodCollected(c, idx)
		m.Expected = m.Expected.Add(expected)
		m.Collected = m.Collected.Add(collected)
		m.Remaining = m.Remaining.Add(expected.Sub(collected).ClampZero())
	}
	return m
}

// TopContributors ranks members by cleared payments across all committees.
// Ties keep the order in which members were first seen. n <= 0 keeps all.
func TopContributors(committees []core.Committee, n int) []Contributor {
	totals := make(map[string]core.Money)
	var order []string
	for _, c := range committees {
		for _, id := range c.DistinctMembers() {
			if _, ok := totals[id]; !ok {
				totals[id] = core.Money{}
				order = append(order, id)
			}
		}
		for _, p := range c.Payments {
			if p.Status != core.PaymentCleared {
				continue
			}
			if _, ok := totals[p.MemberID]; !ok {
				order = append(order, p.MemberID)
			}
			totals[p.MemberID] = totals[p.MemberID].Add(p.AmountPaid)
		}
	}

	out := make([]Contributor, 0, len(order))
	for _, id := range order {
		out = append(out, Contributor{MemberID: id, Total: totals[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// UpcomingPayouts lists unpaid turns whose payout date is between today and
// windowDays ahead, inclusive, ordered by date.
func UpcomingPayouts(committees []core.Committee, today core.Date, windowDays int) []UpcomingPayout {
	var out []UpcomingPayout
	for _, c := range committees {
		for _, turn := range rotation.SortTurns(c.PayoutTurns) {
			if turn.PaidOut {
				continue
			}
			date := rotation.TurnDate(c, turn)
			days := today.DaysUntil(date)
			if days < 0 || days > windowDays {
				continue
			}
			out = append(out, UpcomingPayout{
				CommitteeID:    c.ID,
				CommitteeTitle: c.Title,
				Slot:           turn.Slot,
				MemberID:       turn.MemberID,
				TurnPeriod:     turn.TurnPeriod,
				Date:           date,
				DaysUntil:      days,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out
}
