package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kameti/internal/core"
	"kameti/internal/services"
)

var alertsJSON bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List overdue members, overdue installments and upcoming payouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.LedgerService, today core.Date) error {
			rep, err := svc.Notifications(ctx, today)
			if err != nil {
				return err
			}
			if alertsJSON {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			if rep.Empty() {
				cmd.Println("No alerts for", today.String())
				return nil
			}
			for _, a := range rep.Alerts() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-36s %s\n", a.Kind, a.EntityID, a.Message)
			}
			return nil
		})
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(alertsCmd)
}
