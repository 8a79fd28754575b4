package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/plantdesk/dms/internal/service"
)

var (
	rechargeAmount  string
	rechargeMethod  string
	rechargeRemarks string
	rechargeDate    string
)

var rechargeCmd = &cobra.Command{
	Use:   "recharge <distributor|store> <id>",
	Short: "Credit an account wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseAccountRef(args[0], args[1])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(rechargeAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", rechargeAmount, err)
		}
		var date time.Time
		if rechargeDate != "" {
			if date, err = parseDate(rechargeDate); err != nil {
				return err
			}
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			req := service.RechargeRequest{
				Account:     ref,
				Amount:      amount,
				Date:        date,
				InitiatedBy: actor,
			}
			if rechargeMethod != "" {
				req.PaymentMethod = &rechargeMethod
			}
			if rechargeRemarks != "" {
				req.Remarks = &rechargeRemarks
			}

			txn, err := rt.wallets.Recharge(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "recharged %s: %s, balance %s (transaction %s)\n",
				ref, txn.Amount.StringFixed(2), txn.BalanceAfter.StringFixed(2), txn.ID)
			return nil
		})
	},
}

var (
	voucherAmount  string
	voucherRemarks string
	voucherDate    string
)

var voucherCmd = &cobra.Command{
	Use:   "voucher <distributor|store> <id>",
	Short: "Book a signed journal voucher against an account wallet",
	Long: `Book a manual wallet correction. The amount keeps its sign: a positive
amount credits the account, a negative amount debits it. Remarks are
mandatory so the adjustment explains itself in the statement.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseAccountRef(args[0], args[1])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(voucherAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", voucherAmount, err)
		}
		var date time.Time
		if voucherDate != "" {
			if date, err = parseDate(voucherDate); err != nil {
				return err
			}
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			txn, err := rt.wallets.JournalVoucher(cmd.Context(), service.JournalVoucherRequest{
				Account:     ref,
				Amount:      amount,
				Date:        date,
				Remarks:     &voucherRemarks,
				InitiatedBy: actor,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "voucher on %s: %s, balance %s (transaction %s)\n",
				ref, txn.Amount.StringFixed(2), txn.BalanceAfter.StringFixed(2), txn.ID)
			return nil
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <distributor|store> <id>",
	Short: "Print an account's cached wallet balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseAccountRef(args[0], args[1])
		if err != nil {
			return err
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			balance, err := rt.wallets.Balance(cmd.Context(), ref)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, balance.StringFixed(2))
			return nil
		})
	},
}

var txCmd = &cobra.Command{
	Use:   "tx <transaction-id>",
	Short: "Show a single wallet transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			txn, err := rt.wallets.Transaction(cmd.Context(), id)
			if err != nil {
				return err
			}
			ref, err := txn.Account()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s %s %s on %s, balance after %s (seq %d, by %s)\n",
				txn.Date.Format("2006-01-02"), txn.Type, txn.Amount.StringFixed(2),
				ref, txn.BalanceAfter.StringFixed(2), txn.Seq, txn.InitiatedBy)
			return nil
		})
	},
}

var (
	statementFrom string
	statementTo   string
)

var statementCmd = &cobra.Command{
	Use:   "statement <distributor|store> <id>",
	Short: "Print an account statement for a date range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseAccountRef(args[0], args[1])
		if err != nil {
			return err
		}
		from, err := parseDate(statementFrom)
		if err != nil {
			return err
		}
		to, err := parseDate(statementTo)
		if err != nil {
			return err
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			st, err := rt.wallets.Statement(cmd.Context(), ref, from, endOfDay(to))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "statement for %s, %s to %s\n", ref, statementFrom, statementTo)
			fmt.Fprintf(w, "opening balance\t\t%s\t\n", st.OpeningBalance.StringFixed(2))
			for _, line := range st.Lines {
				remarks := ""
				if line.Transaction.Remarks != nil {
					remarks = *line.Transaction.Remarks
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					line.Transaction.Date.Format("2006-01-02"),
					line.Transaction.Type,
					line.Transaction.Amount.StringFixed(2),
					line.Balance.StringFixed(2),
					remarks,
				)
			}
			fmt.Fprintf(w, "closing balance\t\t%s\t\n", st.ClosingBalance.StringFixed(2))
			return w.Flush()
		})
	},
}

func init() {
	rechargeCmd.Flags().StringVar(&rechargeAmount, "amount", "", "amount to credit")
	rechargeCmd.Flags().StringVar(&rechargeMethod, "method", "", "payment method (upi, neft, cheque, cash)")
	rechargeCmd.Flags().StringVar(&rechargeRemarks, "remarks", "", "free-form remarks")
	rechargeCmd.Flags().StringVar(&rechargeDate, "date", "", "value date YYYY-MM-DD (default today)")
	_ = rechargeCmd.MarkFlagRequired("amount")

	voucherCmd.Flags().StringVar(&voucherAmount, "amount", "", "signed amount: positive credits, negative debits")
	voucherCmd.Flags().StringVar(&voucherRemarks, "remarks", "", "reason for the adjustment")
	voucherCmd.Flags().StringVar(&voucherDate, "date", "", "value date YYYY-MM-DD (default today)")
	_ = voucherCmd.MarkFlagRequired("amount")
	_ = voucherCmd.MarkFlagRequired("remarks")

	statementCmd.Flags().StringVar(&statementFrom, "from", "", "range start YYYY-MM-DD")
	statementCmd.Flags().StringVar(&statementTo, "to", "", "range end YYYY-MM-DD, inclusive")
	_ = statementCmd.MarkFlagRequired("from")
	_ = statementCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(rechargeCmd, voucherCmd, statementCmd, balanceCmd, txCmd)
}
