package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendyze/internal/report"
)

func newReportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "List transactions and monthly totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.login(ctx); err != nil {
				return err
			}
			records, err := a.pipeline.Snapshot.Load(ctx)
			if err != nil {
				return fmt.Errorf("load transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, dimStyle.Render("No transactions yet."))
				return nil
			}
			fmt.Fprintln(out, transactionsTable(records))
			fmt.Fprintln(out, totalsTable(report.Totals(records)))
			return nil
		},
	}
}
