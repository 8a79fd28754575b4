package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantdesk/dms/internal/domain"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Inspect SKUs, stock levels, and movements",
}

// parseLocation accepts "plant" for the factory or a store id.
func parseLocation(s string) (uuid.UUID, error) {
	if s == "plant" {
		return domain.PlantLocationID, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid location %q (want plant or a store id): %w", s, err)
	}
	return id, nil
}

var skusCmd = &cobra.Command{
	Use:   "skus",
	Short: "List active SKUs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			skus, err := rt.stock.ActiveSKUs(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "id\tname\tprice\tcarton\thsn")
			for _, sku := range skus {
				hsn := ""
				if sku.HSNCode != nil {
					hsn = *sku.HSNCode
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					sku.ID, sku.Name, sku.Price.StringFixed(2), sku.CartonSize, hsn)
			}
			return w.Flush()
		})
	},
}

var levelsCmd = &cobra.Command{
	Use:   "levels <plant|store-id> [sku-id]",
	Short: "Show stock levels at a location",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := parseLocation(args[0])
		if err != nil {
			return err
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			var levels []domain.StockLevel
			if len(args) == 2 {
				skuID, err := uuid.Parse(args[1])
				if err != nil {
					return fmt.Errorf("invalid sku id %q: %w", args[1], err)
				}
				level, err := rt.stock.Level(cmd.Context(), locationID, skuID)
				if err != nil {
					return err
				}
				levels = []domain.StockLevel{*level}
			} else {
				if levels, err = rt.stock.Levels(cmd.Context(), locationID); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "sku_id\tquantity\treserved\tavailable")
			for _, level := range levels {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n",
					level.SKUID, level.Quantity, level.Reserved, level.Available())
			}
			return w.Flush()
		})
	},
}

var movementsLimit int

var movementsCmd = &cobra.Command{
	Use:   "movements <plant|store-id>",
	Short: "Show recent stock movements at a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locationID, err := parseLocation(args[0])
		if err != nil {
			return err
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			movements, err := rt.stock.Movements(cmd.Context(), locationID, movementsLimit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "date\ttype\tsku_id\tchange\tafter\tby")
			for _, m := range movements {
				fmt.Fprintf(w, "%s\t%s\t%s\t%+d\t%d\t%s\n",
					m.Date.Format("2006-01-02"), m.Type, m.SKUID,
					m.QuantityChange, m.QuantityAfter, m.InitiatedBy)
			}
			return w.Flush()
		})
	},
}

func init() {
	movementsCmd.Flags().IntVar(&movementsLimit, "limit", 50, "maximum movements to show")

	stockCmd.AddCommand(skusCmd, levelsCmd, movementsCmd)
	rootCmd.AddCommand(stockCmd)
}
