package dashboard

import (
	"reflect"
	"testing"

	"kameti/internal/core"
	"kameti/internal/rotation"
)

func monthly(id string, start core.Date, duration int, members ...string) core.Committee {
	return core.Committee{
		ID:              id,
		Title:           "Committee " + id,
		Type:            core.Monthly,
		StartDate:       start,
		Duration:        duration,
		AmountPerMember: core.Units(1000),
		MemberIDs:       members,
		PayoutMethod:    core.PayoutManual,
		PayoutTurns:     rotation.InitializeTurns(members, core.PayoutManual, duration, nil),
	}
}

func cleared(member string, period int, amount int64) core.CommitteePayment {
	return core.CommitteePayment{
		MemberID:    member,
		Period:      period,
		AmountPaid:  core.Units(amount),
		PaymentDate: core.NewDate(2024, 1, 5),
		Status:      core.PaymentCleared,
	}
}

func TestIsCommitteeActive(t *testing.T) {
	c := monthly("c1", core.NewDate(2024, 1, 1), 6, "a", "b")
	tests := []struct {
		name  string
		today core.Date
		want  bool
	}{
		{"before start", core.NewDate(2023, 12, 31), false},
		{"start day", core.NewDate(2024, 1, 1), true},
		{"last day of schedule", core.NewDate(2024, 6, 30), true},
		{"end date is exclusive", core.NewDate(2024, 7, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCommitteeActive(c, tt.today); got != tt.want {
				t.Errorf("IsCommitteeActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	today := core.NewDate(2024, 3, 15)

	active := monthly("c1", core.NewDate(2024, 1, 1), 6, "a", "b", "c")
	active.Payments = []core.CommitteePayment{
		cleared("a", 2, 1000),
		cleared("b", 2, 400),
		cleared("a", 0, 1000),
	}
	finished := monthly("c2", core.NewDate(2023, 1, 1), 2, "a")
	finished.Payments = []core.CommitteePayment{cleared("a", 0, 1000), cleared("a", 1, 1000)}
	future := monthly("c3", core.NewDate(2024, 6, 1), 3, "d")

	open := core.Installment{
		TotalPayment:       core.Units(12000),
		AdvancePayment:     core.Units(2000),
		MonthlyInstallment: core.Units(1000),
		StartDate:          core.NewDate(2024, 1, 10),
		Duration:           10,
		Payments: []core.InstallmentPayment{
			{AmountPaid: core.Units(1000), PaymentDate: core.NewDate(2024, 2, 10), Status: core.PaymentPaid},
		},
	}
	closed := core.Installment{
		TotalPayment:       core.Units(3000),
		AdvancePayment:     core.Units(1000),
		MonthlyInstallment: core.Units(1000),
		StartDate:          core.NewDate(2023, 1, 10),
		Duration:           2,
		Payments: []core.InstallmentPayment{
			{AmountPaid: core.Units(1000), PaymentDate: core.NewDate(2023, 2, 10), Status: core.PaymentPaid},
			{AmountPaid: core.Units(1000), PaymentDate: core.NewDate(2023, 3, 10), Status: core.PaymentPaid},
		},
	}

	s := Summarize(
		[]core.Committee{active, finished, future},
		[]core.Installment{open, closed},
		today,
		Options{},
	)

	wantCommittees := CommitteeMetrics{
		Total:     3,
		Active:    1,
		Completed: 2,
		Expected:  core.Units(18000 + 2000 + 3000),
		Collected: core.Units(2400 + 2000),
		Remaining: core.Units(15600 + 0 + 3000),
	}
	if s.Committees != wantCommittees {
		t.Errorf("Committees = %+v, want %+v", s.Committees, wantCommittees)
	}

	wantInstallments := InstallmentMetrics{
		Total:      2,
		Active:     1,
		Closed:     1,
		TotalValue: core.Units(15000),
		Collected:  core.Units(3000 + 3000),
		Remaining:  core.Units(9000 + 0),
	}
	if s.Installments != wantInstallments {
		t.Errorf("Installments = %+v, want %+v", s.Installments, wantInstallments)
	}

	// c1 is in period 2, c2 is clamped to its last period, c3 has not started.
	wantPeriod := PeriodMetrics{
		Expected:  core.Units(3000 + 1000),
		Collected: core.Units(1400 + 1000),
		Remaining: core.Units(1600),
	}
	if s.CurrentPeriod != wantPeriod {
		t.Errorf("CurrentPeriod = %+v, want %+v", s.CurrentPeriod, wantPeriod)
	}

	again := Summarize([]core.Committee{active, finished, future}, []core.Installment{open, closed}, today, Options{})
	if !reflect.DeepEqual(s, again) {
		t.Error("Summarize() is not idempotent")
	}
}

func TestTopContributors(t *testing.T) {
	c1 := monthly("c1", core.NewDate(2024, 1, 1), 6, "a", "b", "c")
	c1.Payments = []core.CommitteePayment{
		cleared("b", 0, 500),
		cleared("c", 0, 500),
		cleared("a", 0, 200),
	}
	pending := cleared("a", 1, 5000)
	pending.Status = core.PaymentPending
	c1.Payments = append(c1.Payments, pending)

	c2 := monthly("c2", core.NewDate(2024, 1, 1), 6, "d", "a")
	c2.Payments = []core.CommitteePayment{cleared("a", 0, 100)}

	got := TopContributors([]core.Committee{c1, c2}, 3)
	want := []Contributor{
		{MemberID: "b", Total: core.Units(500)},
		{MemberID: "c", Total: core.Units(500)},
		{MemberID: "a", Total: core.Units(300)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopContributors() = %+v, want %+v", got, want)
	}

	if all := TopContributors([]core.Committee{c1, c2}, 0); len(all) != 4 {
		t.Errorf("TopContributors(n=0) returned %d members, want 4", len(all))
	}
}

func TestUpcomingPayouts(t *testing.T) {
	c := monthly("c1", core.NewDate(2024, 1, 1), 4, "a", "b", "c", "d")
	c.PayoutTurns[1] = rotation.ToggleTurnPaid(c.PayoutTurns[1], core.NewDate(2024, 1, 30))

	tests := []struct {
		name  string
		today core.Date
		want  []string
	}{
		{"turn today", core.NewDate(2024, 3, 1), []string{"c"}},
		{"seven days ahead", core.NewDate(2024, 3, 25), []string{"d"}},
		{"eight days ahead", core.NewDate(2024, 3, 24), nil},
		{"paid turn skipped", core.NewDate(2024, 1, 28), nil},
		{"past turn skipped", core.NewDate(2024, 1, 2), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, u := range UpcomingPayouts([]core.Committee{c}, tt.today, DefaultWindowDays) {
				got = append(got, u.MemberID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UpcomingPayouts() members = %v, want %v", got, tt.want)
			}
		})
	}
}
