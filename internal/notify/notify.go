// Package notify decides which committees, installments and payouts deserve
// an alert on a given day.
package notify

import (
	"fmt"

	"kameti/internal/core"
	"kameti/internal/dashboard"
	"kameti/internal/ledger"
	"kameti/internal/period"
)

type Kind string

const (
	KindOverdueCommittee   Kind = "overdue_committee"
	KindOverdueInstallment Kind = "overdue_installment"
	KindUpcomingPayout     Kind = "upcoming_payout"
)

type Options struct {
	WindowDays int
}

// OverdueCommittee lists the members that have not cleared the current period.
type OverdueCommittee struct {
	CommitteeID    string   `json:"committeeId"`
	CommitteeTitle string   `json:"committeeTitle"`
	Period         int      `json:"periodIndex"`
	MemberIDs      []string `json:"memberIds"`
}

type OverdueInstallment struct {
	InstallmentID string     `json:"installmentId"`
	BuyerName     string     `json:"buyerName"`
	ProductName   string     `json:"productName"`
	Expected      int        `json:"expectedPayments"`
	Paid          int        `json:"paidPayments"`
	Remaining     core.Money `json:"remaining"`
}

// Report holds the three alert categories. They are computed independently
// and never deduplicated against each other.
type Report struct {
	Today               core.Date                  `json:"today"`
	OverdueCommittees   []OverdueCommittee         `json:"overdueCommittees"`
	OverdueInstallments []OverdueInstallment       `json:"overdueInstallments"`
	UpcomingPayouts     []dashboard.UpcomingPayout `json:"upcomingPayouts"`
}

// Alert is one line of the flattened notification feed.
type Alert struct {
	Kind     Kind   `json:"kind"`
	EntityID string `json:"entityId"`
	Message  string `json:"message"`
}

// Detect evaluates every category for today.
func Detect(committees []core.Committee, installments []core.Installment, today core.Date, opts Options) Report {
	window := opts.WindowDays
	if window <= 0 {
		window = dashboard.DefaultWindowDays
	}
	r := Report{Today: today}

	for _, c := range committees {
		members := ledger.OverdueMembers(c, today)
		if len(members) == 0 {
			continue
		}
		r.OverdueCommittees = append(r.OverdueCommittees, OverdueCommittee{
			CommitteeID:    c.ID,
			CommitteeTitle: c.Title,
			Period:         period.CurrentIndex(c, today),
			MemberIDs:      members,
		})
	}

	for _, i := range installments {
		if ledger.IsClosed(i) || !ledger.IsInstallmentOverdue(i, today) {
			continue
		}
		r.OverdueInstallments = append(r.OverdueInstallments, OverdueInstallment{
			InstallmentID: i.ID,
			BuyerName:     i.BuyerName,
			ProductName:   i.ProductName,
			Expected:      ledger.ExpectedPaymentCount(i, today),
			Paid:          ledger.PaidCount(i),
			Remaining:     ledger.InstallmentRemaining(i),
		})
	}

	r.UpcomingPayouts = dashboard.UpcomingPayouts(committees, today, window)
	return r
}

func (r Report) HasOverdueCommittees() bool {
	return len(r.OverdueCommittees) > 0
}

func (r Report) HasOverdueInstallments() bool {
	return len(r.OverdueInstallments) > 0
}

func (r Report) HasUpcomingPayouts() bool {
	return len(r.UpcomingPayouts) > 0
}

func (r Report) Empty() bool {
	return !r.HasOverdueCommittees() && !r.HasOverdueInstallments() && !r.HasUpcomingPayouts()
}

// Count is the number of alerts the feed would contain.
func (r Report) Count() int {
	return len(r.OverdueCommittees) + len(r.OverdueInstallments) + len(r.UpcomingPayouts)
}

// Alerts flattens the report in category order.
func (r Report) Alerts() []Alert {
	out := make([]Alert, 0, r.Count())
	for _, o := range r.OverdueCommittees {
		out = append(out, Alert{
			Kind:     KindOverdueCommittee,
			EntityID: o.CommitteeID,
			Message:  fmt.Sprintf("%s: %d member(s) have not paid period %d", o.CommitteeTitle, len(o.MemberIDs), o.Period+1),
		})
	}
	for _, o := range r.OverdueInstallments {
		out = append(out, Alert{
			Kind:     KindOverdueInstallment,
			EntityID: o.InstallmentID,
			Message:  fmt.Sprintf("%s (%s): %d of %d payments made", o.BuyerName, o.ProductName, o.Paid, o.Expected),
		})
	}
	for _, u := range r.UpcomingPayouts {
		out = append(out, Alert{
			Kind:     KindUpcomingPayout,
			EntityID: u.CommitteeID,
			Message:  fmt.Sprintf("%s: payout to %s on %s", u.CommitteeTitle, u.MemberID, u.Date),
		})
	}
	return out
}
