package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/repository"
)

var (
	verifyAll    bool
	verifyRepair bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [<distributor|store> <id>]",
	Short: "Check cached wallet balances against recomputed ledger sums",
	Long: `Recompute each account's running balance from its transaction log and
compare it with the cached balance and the stored snapshots. Exits
nonzero when any account is out of sync, unless --repair rebuilt it.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return errors.New("pass --all, or an account as <distributor|store> <id>")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !verifyAll {
			return errors.New("pass --all, or an account as <distributor|store> <id>")
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			ctx := cmd.Context()

			var refs []domain.AccountRef
			if len(args) == 2 {
				ref, err := parseAccountRef(args[0], args[1])
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			} else {
				var err error
				if refs, err = allAccounts(ctx, rt); err != nil {
					return err
				}
			}

			drifted := 0
			for _, ref := range refs {
				drift, err := rt.wallets.Verify(ctx, ref)
				if err != nil && !errors.Is(err, domain.ErrBalanceDrift) {
					return err
				}
				if drift == nil {
					continue
				}
				drifted++

				fmt.Fprintf(os.Stdout, "drift on %s: cached %s, ledger %s, %d stale rows\n",
					drift.Account, drift.CachedBalance.StringFixed(2),
					drift.LedgerBalance.StringFixed(2), drift.StaleRows)

				if verifyRepair {
					result, err := rt.wallets.Recalculate(ctx, ref, actor)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stdout, "repaired %s: balance %s, %d transactions rewritten\n",
						ref, result.FinalBalance.StringFixed(2), result.TransactionsUpdated)
				}
			}

			if drifted == 0 {
				fmt.Fprintf(os.Stdout, "%d accounts verified, all consistent\n", len(refs))
				return nil
			}
			if verifyRepair {
				fmt.Fprintf(os.Stdout, "%d of %d accounts repaired\n", drifted, len(refs))
				return nil
			}
			return fmt.Errorf("%d of %d accounts out of sync", drifted, len(refs))
		})
	},
}

var recalculateCmd = &cobra.Command{
	Use:   "recalculate <distributor|store> <id>",
	Short: "Rebuild an account's balance snapshots from its transaction log",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := parseAccountRef(args[0], args[1])
		if err != nil {
			return err
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			result, err := rt.wallets.Recalculate(cmd.Context(), ref, actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "recalculated %s: balance %s, %d transactions updated\n",
				ref, result.FinalBalance.StringFixed(2), result.TransactionsUpdated)
			return nil
		})
	},
}

func allAccounts(ctx context.Context, rt *runtime) ([]domain.AccountRef, error) {
	distributors, err := repository.NewDistributorRepository(rt.db).List(ctx)
	if err != nil {
		return nil, err
	}
	stores, err := repository.NewStoreRepository(rt.db).List(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]domain.AccountRef, 0, len(distributors)+len(stores))
	for _, d := range distributors {
		refs = append(refs, domain.DistributorRef(d.ID))
	}
	for _, s := range stores {
		refs = append(refs, domain.StoreRef(s.ID))
	}
	return refs, nil
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "verify every distributor and store")
	verifyCmd.Flags().BoolVar(&verifyRepair, "repair", false, "recalculate accounts found out of sync")

	rootCmd.AddCommand(verifyCmd, recalculateCmd)
}
