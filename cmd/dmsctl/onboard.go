package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/repository"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Onboard distributors, stores, and SKUs",
}

var (
	addDistributorPhone       string
	addDistributorState       string
	addDistributorArea        string
	addDistributorCreditLimit string
	addDistributorAgentCode   string
	addDistributorGSTIN       string
	addDistributorStoreID     string
)

var addDistributorCmd = &cobra.Command{
	Use:   "distributor <name>",
	Short: "Register a distributor with an empty wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creditLimit := decimal.Zero
		if addDistributorCreditLimit != "" {
			var err error
			if creditLimit, err = decimal.NewFromString(addDistributorCreditLimit); err != nil {
				return fmt.Errorf("invalid credit limit %q: %w", addDistributorCreditLimit, err)
			}
		}

		d := &domain.Distributor{
			ID:            uuid.New(),
			Name:          args[0],
			Phone:         addDistributorPhone,
			State:         addDistributorState,
			Area:          addDistributorArea,
			WalletBalance: decimal.Zero,
			CreditLimit:   creditLimit,
			DateAdded:     time.Now().UTC(),
		}
		if addDistributorAgentCode != "" {
			d.AgentCode = &addDistributorAgentCode
		}
		if addDistributorGSTIN != "" {
			d.GSTIN = &addDistributorGSTIN
		}
		if addDistributorStoreID != "" {
			storeID, err := uuid.Parse(addDistributorStoreID)
			if err != nil {
				return fmt.Errorf("invalid store id %q: %w", addDistributorStoreID, err)
			}
			d.StoreID = &storeID
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if err := repository.NewDistributorRepository(rt.db).Create(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "distributor %s created (%s)\n", d.ID, d.Name)
			return nil
		})
	},
}

var (
	addStoreLocation string
	addStoreEmail    string
	addStorePhone    string
	addStoreGSTIN    string
)

var addStoreCmd = &cobra.Command{
	Use:   "store <name>",
	Short: "Register a company store with an empty wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := &domain.Store{
			ID:            uuid.New(),
			Name:          args[0],
			Location:      addStoreLocation,
			WalletBalance: decimal.Zero,
			CreatedAt:     time.Now().UTC(),
		}
		if addStoreEmail != "" {
			st.Email = &addStoreEmail
		}
		if addStorePhone != "" {
			st.Phone = &addStorePhone
		}
		if addStoreGSTIN != "" {
			st.GSTIN = &addStoreGSTIN
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if err := repository.NewStoreRepository(rt.db).Create(cmd.Context(), st); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "store %s created (%s)\n", st.ID, st.Name)
			return nil
		})
	},
}

var (
	addSKUPrice  string
	addSKUCarton int64
	addSKUGST    string
	addSKUHSN    string
)

var addSKUCmd = &cobra.Command{
	Use:   "sku <name>",
	Short: "Register an active SKU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(addSKUPrice)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", addSKUPrice, err)
		}
		gst := decimal.Zero
		if addSKUGST != "" {
			if gst, err = decimal.NewFromString(addSKUGST); err != nil {
				return fmt.Errorf("invalid gst percentage %q: %w", addSKUGST, err)
			}
		}

		sku := &domain.SKU{
			ID:            uuid.New(),
			Name:          args[0],
			Price:         price,
			CartonSize:    addSKUCarton,
			GSTPercentage: gst,
			Status:        domain.SKUStatusActive,
		}
		if addSKUHSN != "" {
			sku.HSNCode = &addSKUHSN
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if err := repository.NewSKURepository(rt.db).Create(cmd.Context(), sku); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "sku %s created (%s at %s)\n", sku.ID, sku.Name, sku.Price.StringFixed(2))
			return nil
		})
	},
}

func init() {
	addDistributorCmd.Flags().StringVar(&addDistributorPhone, "phone", "", "contact phone")
	addDistributorCmd.Flags().StringVar(&addDistributorState, "state", "", "state the distributor operates in")
	addDistributorCmd.Flags().StringVar(&addDistributorArea, "area", "", "coverage area")
	addDistributorCmd.Flags().StringVar(&addDistributorCreditLimit, "credit-limit", "", "order credit extended beyond the wallet balance")
	addDistributorCmd.Flags().StringVar(&addDistributorAgentCode, "agent-code", "", "agent code")
	addDistributorCmd.Flags().StringVar(&addDistributorGSTIN, "gstin", "", "GST identification number")
	addDistributorCmd.Flags().StringVar(&addDistributorStoreID, "store-id", "", "home store id")
	_ = addDistributorCmd.MarkFlagRequired("phone")
	_ = addDistributorCmd.MarkFlagRequired("state")
	_ = addDistributorCmd.MarkFlagRequired("area")

	addStoreCmd.Flags().StringVar(&addStoreLocation, "location", "", "city or locality")
	addStoreCmd.Flags().StringVar(&addStoreEmail, "email", "", "contact email")
	addStoreCmd.Flags().StringVar(&addStorePhone, "phone", "", "contact phone")
	addStoreCmd.Flags().StringVar(&addStoreGSTIN, "gstin", "", "GST identification number")
	_ = addStoreCmd.MarkFlagRequired("location")

	addSKUCmd.Flags().StringVar(&addSKUPrice, "price", "", "unit price")
	addSKUCmd.Flags().Int64Var(&addSKUCarton, "carton", 1, "units per carton")
	addSKUCmd.Flags().StringVar(&addSKUGST, "gst", "", "GST percentage")
	addSKUCmd.Flags().StringVar(&addSKUHSN, "hsn", "", "HSN code")
	_ = addSKUCmd.MarkFlagRequired("price")

	addCmd.AddCommand(addDistributorCmd, addStoreCmd, addSKUCmd)
	rootCmd.AddCommand(addCmd)
}
