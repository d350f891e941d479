package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kameti/internal/core"
	"kameti/internal/services"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every committee and installment to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.LedgerService, today core.Date) error {
			path := exportOutput
			if path == "" {
				path = "kameti-" + today.String() + ".xlsx"
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := svc.Export(ctx, f, today); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default kameti-<today>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
