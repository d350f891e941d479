package services

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"kameti/internal/core"
	"kameti/internal/dashboard"
	"kameti/internal/ledger"
	"kameti/internal/notify"
	"kameti/internal/period"
	"kameti/internal/report"
	"kameti/internal/rotation"
)

// CommitteeSummary is the derived view of one committee on a given day.
type CommitteeSummary struct {
	Committee     core.Committee             `json:"committee"`
	Today         core.Date                  `json:"today"`
	CurrentPeriod int                        `json:"currentPeriodIndex"`
	PeriodLabel   string                     `json:"periodLabel,omitempty"`
	Active        bool                       `json:"active"`
	Expected      core.Money                 `json:"expected"`
	Collected     core.Money                 `json:"collected"`
	Remaining     core.Money                 `json:"remaining"`
	PeriodDue     core.Money                 `json:"periodExpected"`
	PeriodPaid    core.Money                 `json:"periodCollected"`
	Overdue       []string                   `json:"overdueMembers"`
	Statements    map[string][]ledger.Line   `json:"statements"`
	Turns         []core.CommitteeMemberTurn `json:"turns"`
}

// InstallmentSummary is the derived view of one installment on a given day.
type InstallmentSummary struct {
	Installment core.Installment `json:"installment"`
	Today       core.Date        `json:"today"`
	Collected   core.Money       `json:"collected"`
	Remaining   core.Money       `json:"remaining"`
	Expected    int              `json:"expectedPayments"`
	Paid        int              `json:"paidPayments"`
	Overdue     bool             `json:"overdue"`
	Schedule    []ledger.Line    `json:"schedule"`
}

// snapshot loads both collections concurrently.
func (s *LedgerService) snapshot(ctx context.Context) ([]core.Committee, []core.Installment, error) {
	var (
		committees   []core.Committee
		installments []core.Installment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		committees, err = s.store.ListCommittees(gctx)
		if err != nil {
			return fmt.Errorf("list committees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		installments, err = s.store.ListInstallments(gctx)
		if err != nil {
			return fmt.Errorf("list installments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return committees, installments, nil
}

// Dashboard returns the aggregate figures for today. Results are cached per
// date until the next write; a summary read before a concurrent write is
// returned but not cached.
func (s *LedgerService) Dashboard(ctx context.Context, today core.Date) (dashboard.Summary, error) {
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(today); ok {
			return sum, nil
		}
	}
	gen := s.generation.Load()
	committees, installments, err := s.snapshot(ctx)
	if err != nil {
		return dashboard.Summary{}, err
	}
	sum := dashboard.Summarize(committees, installments, today, s.dashOpts)
	if s.summaries != nil {
		s.cacheSummary(gen, today, sum)
	}
	return sum, nil
}

// Notifications evaluates every alert category for today.
func (s *LedgerService) Notifications(ctx context.Context, today core.Date) (notify.Report, error) {
	committees, installments, err := s.snapshot(ctx)
	if err != nil {
		return notify.Report{}, err
	}
	opts := s.notifyOpts
	if opts.WindowDays == 0 {
		opts.WindowDays = s.dashOpts.WindowDays
	}
	return notify.Detect(committees, installments, today, opts), nil
}

func (s *LedgerService) CommitteeSummary(ctx context.Context, id string, today core.Date) (CommitteeSummary, error) {
	c, err := s.store.GetCommittee(ctx, id)
	if err != nil {
		return CommitteeSummary{}, err
	}
	idx := period.CurrentIndex(c, today)
	sum := CommitteeSummary{
		Committee:     c,
		Today:         today,
		CurrentPeriod: idx,
		Active:        dashboard.IsCommitteeActive(c, today),
		Expected:      ledger.CommitteeExpected(c),
		Collected:     ledger.CommitteeCollected(c),
		Remaining:     ledger.CommitteeRemaining(c),
		PeriodDue:     ledger.PeriodExpected(c),
		Overdue:       ledger.OverdueMembers(c, today),
		Statements:    make(map[string][]ledger.Line),
		Turns:         rotation.SortTurns(c.PayoutTurns),
	}
	if idx != period.NotStarted {
		sum.PeriodLabel = period.Label(c.StartDate, idx, c.Type, s.locale)
		sum.PeriodPaid = ledger.PeriodCollected(c, idx)
	}
	for _, m := range c.DistinctMembers() {
		sum.Statements[m] = ledger.MemberStatement(c, m)
	}
	return sum, nil
}

func (s *LedgerService) InstallmentSummary(ctx context.Context, id string, today core.Date) (InstallmentSummary, error) {
	i, err := s.store.GetInstallment(ctx, id)
	if err != nil {
		return InstallmentSummary{}, err
	}
	return InstallmentSummary{
		Installment: i,
		Today:       today,
		Collected:   ledger.InstallmentCollected(i),
		Remaining:   ledger.InstallmentRemaining(i).ClampZero(),
		Expected:    ledger.ExpectedPaymentCount(i, today),
		Paid:        ledger.PaidCount(i),
		Overdue:     ledger.IsInstallmentOverdue(i, today),
		Schedule:    ledger.InstallmentSchedule(i),
	}, nil
}

// CommitteeReceipt builds the receipt of one committee contribution.
func (s *LedgerService) CommitteeReceipt(ctx context.Context, committeeID, paymentID string) (report.Receipt, error) {
	c, err := s.store.GetCommittee(ctx, committeeID)
	if err != nil {
		return report.Receipt{}, err
	}
	var memberID string
	for _, p := range c.Payments {
		if p.ID == paymentID {
			memberID = p.MemberID
			break
		}
	}
	if memberID == "" {
		return report.Receipt{}, fmt.Errorf("payment %s: %w", paymentID, report.ErrPaymentNotFound)
	}
	payer, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return report.Receipt{}, fmt.Errorf("load payer %s: %w", memberID, err)
	}
	return report.CommitteeReceipt(c, payer, paymentID, s.locale)
}

// InstallmentReceipt builds the receipt of one installment payment.
func (s *LedgerService) InstallmentReceipt(ctx context.Context, installmentID, paymentID string) (report.Receipt, error) {
	i, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return report.Receipt{}, err
	}
	return report.InstallmentReceipt(i, paymentID, s.locale)
}

// Export writes the xlsx workbook of every committee and installment to w.
func (s *LedgerService) Export(ctx context.Context, w io.Writer, today core.Date) error {
	committees, installments, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	return report.ExportWorkbook(w, committees, installments, today)
}
