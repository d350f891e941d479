package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kameti/internal/cli"
	"kameti/internal/config"
	applog "kameti/internal/log"
	"kameti/internal/services"
	"kameti/internal/sheets"
	gsheet "kameti/internal/sheets/google"
	mem "kameti/internal/sheets/memory"
	"kameti/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting kameti-worker")

	res, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		os.Exit(1)
	}

	mirror, lister, err := openMirror(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize payments mirror", applog.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	mirrorWorker := worker.NewMirrorWorker(res.Store, mirror, lister)
	scanner := services.NewAlertScanner(res.Service, nil)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) error {
		return res.Close()
	})

	// Catch up on payments recorded while the worker was down.
	if err := mirrorWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if res.AMQP != nil {
		g.Go(func() error {
			err := res.AMQP.ConsumeLedgerEvents(gctx, mirrorWorker.HandleLedgerEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		logger.Info("AMQP disabled, mirroring only on reconcile")
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.AlertScanInterval)
		defer ticker.Stop()
		for {
			today := res.Service.Today()
			if ran, n, err := scanner.ScanIfDue(gctx, today); err != nil {
				logger.Error("Alert scan failed", applog.FieldError, err)
			} else if ran {
				logger.Info("Alert scan delivered", "count", n, "today", today.String())
			}
			if err := mirrorWorker.Reconcile(gctx); err != nil {
				logger.Error("Periodic reconcile failed", applog.FieldError, err)
			}

			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", applog.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// openMirror returns the Google Sheets mirror when a spreadsheet is
// configured and an in-process one otherwise.
func openMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.PaymentMirror, sheets.RowLister, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled, using in-memory mirror")
		m := mem.New()
		return m, m, nil
	}
	client, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, nil, err
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, client, nil
}
