package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"spendyze/internal/core"
	"spendyze/internal/services"
)

func newAddCommand(a *app) *cobra.Command {
	var form services.TransactionForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Example: "  spendyze-cli add -u alice --type expense --amount 12.50 --category Food\n" +
			"  spendyze-cli add -u alice --type income --amount 900 --category Freelance",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.login(ctx); err != nil {
				return err
			}
			out := a.pipeline.Transactions.Add(ctx, form)
			if !out.OK {
				return errors.New(out.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.Type, "type", string(core.Expense), "expense or income")
	flags.StringVar(&form.Amount, "amount", "", "positive amount, dot or comma decimals")
	flags.StringVar(&form.Date, "date", time.Now().Format(core.DateLayout), "date as YYYY-MM-DD")
	flags.StringVar(&form.Category, "category", "", "category name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}
