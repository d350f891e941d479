package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kameti/internal/cli"
	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/services"
)

var todayFlag string

var rootCmd = &cobra.Command{
	Use:   "kametictl",
	Short: "kametictl - committee and installment ledger tools",
	Long: `kametictl reads the kameti ledger configured in the environment
(DATA_BACKEND, SQLITE_DB_PATH, ...) and prints dashboards, alerts and
receipts, exports the ledger to a spreadsheet and manages the SQLite schema.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(cli.Banner("kametictl"))
		_ = cmd.Help()
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&todayFlag, "today", "", "evaluate as of this date (YYYY-MM-DD)")
}

// withService loads the configuration, opens the ledger and runs fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *services.LedgerService, today core.Date) error) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	cfg.AMQPURL = ""
	logger := cli.SetupLogger(cfg, applog.ComponentCLI)

	ctx := cmd.Context()
	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	today := res.Service.Today()
	if todayFlag != "" {
		if today, err = core.ParseDate(todayFlag); err != nil {
			return fmt.Errorf("invalid --today %q: %w", todayFlag, err)
		}
	}
	return fn(ctx, res.Service, today)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
