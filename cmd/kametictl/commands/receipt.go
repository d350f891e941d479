package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kameti/internal/core"
	"kameti/internal/report"
	"kameti/internal/services"
)

var receiptCmd = &cobra.Command{
	Use:   "receipt (committee|installment) <id> <payment-id>",
	Short: "Print the receipt of a payment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, id, pid := args[0], args[1], args[2]
		return withService(cmd, func(ctx context.Context, svc *services.LedgerService, _ core.Date) error {
			var (
				rec report.Receipt
				err error
			)
			switch kind {
			case report.KindCommittee:
				rec, err = svc.CommitteeReceipt(ctx, id, pid)
			case report.KindInstallment:
				rec, err = svc.InstallmentReceipt(ctx, id, pid)
			default:
				return fmt.Errorf("unknown receipt kind %q: want committee or installment", kind)
			}
			if err != nil {
				return err
			}
			cmd.Print(rec.Text())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(receiptCmd)
}
