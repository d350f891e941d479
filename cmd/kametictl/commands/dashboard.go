package commands

import (
	"context"

	"github.com/spf13/cobra"

	"kameti/internal/core"
	"kameti/internal/services"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard figures as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.LedgerService, today core.Date) error {
			sum, err := svc.Dashboard(ctx, today)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		})
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
