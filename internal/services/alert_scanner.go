package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/notify"
)

// AlertSink receives each alert found by a scan.
type AlertSink interface {
	Alert(ctx context.Context, today core.Date, a notify.Alert) error
}

// LogSink writes alerts to the structured log.
type LogSink struct{}

func (LogSink) Alert(ctx context.Context, today core.Date, a notify.Alert) error {
	slog.WarnContext(ctx, "Ledger alert",
		"today", today.String(),
		"kind", a.Kind,
		applog.FieldEntityID, a.EntityID,
		"message", a.Message)
	return nil
}

// AlertScanner runs notification detection over the whole ledger and hands
// the alerts to a sink. Each day is scanned at most once through ScanIfDue.
type AlertScanner struct {
	service *LedgerService
	sink    AlertSink

	mu       sync.Mutex
	lastScan core.Date
}

// NewAlertScanner creates a scanner. A nil sink logs alerts.
func NewAlertScanner(service *LedgerService, sink AlertSink) *AlertScanner {
	if sink == nil {
		sink = LogSink{}
	}
	return &AlertScanner{service: service, sink: sink}
}

// Scan detects alerts for today and returns how many were delivered.
func (a *AlertScanner) Scan(ctx context.Context, today core.Date) (int, error) {
	if a.service == nil {
		return 0, fmt.Errorf("scanner not properly initialized")
	}

	rep, err := a.service.Notifications(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("detect alerts: %w", err)
	}

	delivered := 0
	for _, alert := range rep.Alerts() {
		if err := a.sink.Alert(ctx, today, alert); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver alert",
				"kind", alert.Kind,
				applog.FieldEntityID, alert.EntityID,
				applog.FieldError, err)
			continue
		}
		delivered++
	}

	a.mu.Lock()
	a.lastScan = today
	a.mu.Unlock()

	slog.InfoContext(ctx, "Alert scan complete",
		"today", today.String(),
		"overdue_committees", len(rep.OverdueCommittees),
		"overdue_installments", len(rep.OverdueInstallments),
		"upcoming_payouts", len(rep.UpcomingPayouts),
		"delivered", delivered)

	return delivered, nil
}

// ScanIfDue scans unless today was already scanned. It reports whether a
// scan ran.
func (a *AlertScanner) ScanIfDue(ctx context.Context, today core.Date) (bool, int, error) {
	a.mu.Lock()
	done := !a.lastScan.IsZero() && !a.lastScan.Before(today)
	a.mu.Unlock()
	if done {
		return false, 0, nil
	}
	n, err := a.Scan(ctx, today)
	return err == nil, n, err
}
